package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dnalab/dnachat/pkg/dna"
	"github.com/dnalab/dnachat/pkg/fallacy"
	"github.com/dnalab/dnachat/pkg/session"
)

func executeCLI() error {
	return buildRootCommand().Execute()
}

func buildRootCommand() *cobra.Command {
	var showVersion bool

	root := &cobra.Command{
		Use:   "dnachat",
		Short: "Persona chat engine: upload a text corpus, extract a personality DNA model, debate it",
		Long: strings.TrimSpace(`dnachat builds conversational personas from uploaded text.

Upload a .txt/.rtf corpus to extract a structured personality model, then chat
with it. Replies are checked for logical fallacies as you go. Profiles,
histories, and settings persist locally between runs.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printVersion()
				return nil
			}
			_ = cmd.Help()
			return fmt.Errorf("a subcommand is required")
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "Show build/version metadata")

	root.AddCommand(newChatCommand())
	root.AddCommand(newUploadCommand())
	root.AddCommand(newProfilesCommand())
	root.AddCommand(newPurgeCommand())
	root.AddCommand(newLogCommand())
	root.AddCommand(newSettingsCommand())
	root.AddCommand(newPersonaCommand())
	root.AddCommand(newAuthCommand())
	root.AddCommand(newFallaciesCommand())
	root.AddCommand(newVersionCommand())

	return root
}

func withApp(fn func(a *app) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func confirmPrompt(question string) bool {
	fmt.Printf("%s (y/n): ", question)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

func newChatCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "chat",
		Short:   "Chat interactively with the active persona",
		Example: "  dnachat chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(chatLoop)
		},
	}
}

func newUploadCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "upload <file.txt|file.rtf>",
		Short: "Create a persona profile from a text file",
		Long:  "Read a .txt or .rtf file, extract a personality DNA model from it, and activate the new profile. Extraction failure still creates the profile, with empty metrics.",
		Args:  cobra.ExactArgs(1),
		Example: strings.Join([]string{
			"  dnachat upload essays.txt",
			"  dnachat upload T-JUMPS.rtf --name \"T-JUMPS\"",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := session.ReadUploadFile(args[0])
			if err != nil {
				return err
			}
			displayName := strings.TrimSpace(name)
			if displayName == "" {
				displayName = session.DefaultProfileName(args[0])
			}

			return withApp(func(a *app) error {
				profile, err := a.ctrl.UploadAndAnalyze(context.Background(), displayName, content)
				if err != nil {
					return err
				}
				fmt.Printf("Created profile %s (%s)\n", profile.Name, profile.ID)
				fmt.Printf("  %s\n", profile.Summary)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name (defaults to the file name)")
	return cmd
}

func newProfilesCommand() *cobra.Command {
	profilesRoot := &cobra.Command{
		Use:   "profiles",
		Short: "List, select, and delete persona profiles",
	}

	profilesRoot.AddCommand(&cobra.Command{
		Use:     "list",
		Short:   "List profiles",
		Example: "  dnachat profiles list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				active := a.reg.ActiveID()
				for _, p := range a.reg.Profiles() {
					marker := " "
					if p.ID == active {
						marker = "*"
					}
					fmt.Printf("%s %s  %s\n", marker, p.ID, p.Name)
					if p.Summary != "" {
						fmt.Printf("    %s\n", p.Summary)
					}
				}
				return nil
			})
		},
	})

	profilesRoot.AddCommand(&cobra.Command{
		Use:     "select <profile-id>",
		Short:   "Make a profile the active conversation target",
		Args:    cobra.ExactArgs(1),
		Example: "  dnachat profiles select dna-tjumps-v1",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				if _, ok := a.reg.Get(args[0]); !ok {
					return fmt.Errorf("no profile with id %q", args[0])
				}
				if err := a.ctrl.SelectProfile(args[0]); err != nil {
					return err
				}
				fmt.Printf("Active profile: %s\n", args[0])
				return nil
			})
		},
	})

	var yes bool
	del := &cobra.Command{
		Use:     "delete <profile-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a profile and its conversation history",
		Long:    "Deletion requires confirmation. The last remaining profile cannot be deleted.",
		Args:    cobra.ExactArgs(1),
		Example: "  dnachat profiles delete dna-1b2c3d",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				if err := a.ctrl.ArmDelete(args[0]); err != nil {
					return err
				}
				if !yes && !confirmPrompt(fmt.Sprintf("Delete profile %s and its history?", args[0])) {
					a.ctrl.Cancel()
					fmt.Println("Aborted.")
					return nil
				}
				if err := a.ctrl.ConfirmDelete(); err != nil {
					return err
				}
				fmt.Printf("Deleted %s\n", args[0])
				return nil
			})
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	profilesRoot.AddCommand(del)

	return profilesRoot
}

func newPurgeCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "purge",
		Short:   "Delete all profiles, histories, and settings",
		Long:    "Reset to the built-in seed profile. Your own persona is kept. Requires confirmation.",
		Example: "  dnachat purge",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				a.ctrl.ArmPurge()
				if !yes && !confirmPrompt("Purge ALL profiles, histories, and settings?") {
					a.ctrl.Cancel()
					fmt.Println("Aborted.")
					return nil
				}
				if err := a.ctrl.ConfirmPurge(); err != nil {
					return err
				}
				fmt.Println("Purged. Seed profile restored.")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newLogCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "log [profile-id]",
		Short: "Print the conversation history for a profile",
		Args:  cobra.MaximumNArgs(1),
		Example: strings.Join([]string{
			"  dnachat log",
			"  dnachat log dna-tjumps-v1",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				id := a.reg.ActiveID()
				if len(args) == 1 {
					id = args[0]
				}
				profile, ok := a.reg.Get(id)
				if !ok {
					return fmt.Errorf("no profile with id %q", id)
				}

				history := a.ctrl.History(id)
				if len(history) == 0 {
					fmt.Printf("No conversation with %s yet.\n", profile.Name)
					return nil
				}
				for _, msg := range history {
					speaker := "You"
					if msg.Role == dna.RoleModel {
						speaker = profile.Name
					}
					fmt.Printf("%s: %s\n", speaker, msg.Content)
					for _, f := range msg.DetectedFallacies {
						fmt.Printf("  [fallacy] %s\n", f.Name)
					}
				}
				return nil
			})
		},
	}
}

func newSettingsCommand() *cobra.Command {
	settingsRoot := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the behavioral dials",
	}

	settingsRoot.AddCommand(&cobra.Command{
		Use:     "show",
		Short:   "Show current settings",
		Example: "  dnachat settings show",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				printSettings(a.ctrl.Settings())
				return nil
			})
		},
	})

	var (
		aggressiveness int
		formality      int
		emotional      int
		verbosity      int
		analytical     int
		skepticism     int
		abstractness   int
		density        int
		tts            bool
	)

	set := &cobra.Command{
		Use:   "set",
		Short: "Change one or more dials (0-100) or the TTS toggle",
		Example: strings.Join([]string{
			"  dnachat settings set --aggressiveness 95 --skepticism 100",
			"  dnachat settings set --tts",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := dna.SettingsPatch{}
			if cmd.Flags().Changed("aggressiveness") {
				patch.Aggressiveness = &aggressiveness
			}
			if cmd.Flags().Changed("formality") {
				patch.Formality = &formality
			}
			if cmd.Flags().Changed("emotional") {
				patch.EmotionalExpressiveness = &emotional
			}
			if cmd.Flags().Changed("verbosity") {
				patch.Verbosity = &verbosity
			}
			if cmd.Flags().Changed("analytical") {
				patch.AnalyticalDepth = &analytical
			}
			if cmd.Flags().Changed("skepticism") {
				patch.Skepticism = &skepticism
			}
			if cmd.Flags().Changed("abstractness") {
				patch.Abstractness = &abstractness
			}
			if cmd.Flags().Changed("density") {
				patch.IntellectualDensity = &density
			}
			if cmd.Flags().Changed("tts") {
				patch.TTSEnabled = &tts
			}

			return withApp(func(a *app) error {
				updated, err := a.ctrl.UpdateSettings(patch)
				if err != nil {
					return err
				}
				printSettings(updated)
				return nil
			})
		},
	}

	set.Flags().IntVar(&aggressiveness, "aggressiveness", 0, "Aggressiveness (0-100)")
	set.Flags().IntVar(&formality, "formality", 0, "Formality (0-100)")
	set.Flags().IntVar(&emotional, "emotional", 0, "Emotional expressiveness (0-100)")
	set.Flags().IntVar(&verbosity, "verbosity", 0, "Verbosity (0-100)")
	set.Flags().IntVar(&analytical, "analytical", 0, "Analytical depth (0-100)")
	set.Flags().IntVar(&skepticism, "skepticism", 0, "Skepticism (0-100)")
	set.Flags().IntVar(&abstractness, "abstractness", 0, "Abstractness (0-100)")
	set.Flags().IntVar(&density, "density", 0, "Intellectual density (0-100)")
	set.Flags().BoolVar(&tts, "tts", false, "Speak replies aloud (--tts / --tts=false)")
	settingsRoot.AddCommand(set)

	return settingsRoot
}

func printSettings(s dna.CustomizationSettings) {
	fmt.Printf("aggressiveness: %d\n", s.Aggressiveness)
	fmt.Printf("formality:      %d\n", s.Formality)
	fmt.Printf("emotional:      %d\n", s.EmotionalExpressiveness)
	fmt.Printf("verbosity:      %d\n", s.Verbosity)
	fmt.Printf("analytical:     %d\n", s.AnalyticalDepth)
	fmt.Printf("skepticism:     %d\n", s.Skepticism)
	fmt.Printf("abstractness:   %d\n", s.Abstractness)
	fmt.Printf("density:        %d\n", s.IntellectualDensity)
	fmt.Printf("tts:            %v\n", s.TTSEnabled)
}

func newPersonaCommand() *cobra.Command {
	var (
		name    string
		text    string
		file    string
		analyze bool
	)

	cmd := &cobra.Command{
		Use:   "persona",
		Short: "Show or save your own persona",
		Long:  "With no flags, shows the stored persona. With --name and --text/--file, saves it. Your persona survives a purge.",
		Example: strings.Join([]string{
			"  dnachat persona",
			"  dnachat persona --name Alex --text \"curious skeptic, debates for sport\"",
			"  dnachat persona --name Alex --file about-me.txt --analyze",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				if name == "" && text == "" && file == "" {
					profile, ok := a.ctrl.UserProfile()
					if !ok {
						fmt.Println("No persona saved. Use --name and --text (or --file) to create one.")
						return nil
					}
					fmt.Printf("%s (%s)\n", profile.Name, profile.ID)
					fmt.Printf("  %s\n", profile.Persona)
					if profile.Summary != "" {
						fmt.Printf("  Analysis: %s\n", profile.Summary)
					}
					return nil
				}

				persona := text
				if file != "" {
					content, err := session.ReadUploadFile(file)
					if err != nil {
						return err
					}
					persona = content
				}

				profile, err := a.ctrl.SaveUserPersona(context.Background(), name, persona, analyze)
				if err != nil {
					return err
				}
				fmt.Printf("Saved persona for %s\n", profile.Name)
				if profile.Summary != "" {
					fmt.Printf("  Analysis: %s\n", profile.Summary)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Your display name")
	cmd.Flags().StringVarP(&text, "text", "t", "", "Persona description text")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the persona from a .txt/.rtf file")
	cmd.Flags().BoolVar(&analyze, "analyze", false, "Run DNA extraction on the persona text")
	return cmd
}

func newAuthCommand() *cobra.Command {
	authRoot := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Gemini API credential",
	}

	authRoot.AddCommand(&cobra.Command{
		Use:     "set-key <api-key>",
		Short:   "Store a new API key",
		Long:    "The key is persisted and picked up immediately; no restart is needed.",
		Args:    cobra.ExactArgs(1),
		Example: "  dnachat auth set-key AIza...",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				if err := a.ctrl.SetCredential(args[0]); err != nil {
					return err
				}
				fmt.Println("API key saved.")
				return nil
			})
		},
	})

	authRoot.AddCommand(&cobra.Command{
		Use:     "status",
		Short:   "Show whether a credential is configured",
		Example: "  dnachat auth status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				if a.ctrl.CredentialConfigured() {
					fmt.Println("API key: configured")
				} else {
					fmt.Println("API key: not configured")
				}
				return nil
			})
		},
	})

	return authRoot
}

func newFallaciesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fallacies [name]",
		Short: "Show the logical fallacy reference",
		Args:  cobra.MaximumNArgs(1),
		Example: strings.Join([]string{
			"  dnachat fallacies",
			"  dnachat fallacies \"Straw Man\"",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				entry, ok := fallacy.Lookup(args[0])
				if !ok {
					return fmt.Errorf("no reference entry for %q", args[0])
				}
				fmt.Printf("%s\n  %s\n  e.g. %q\n", entry.Name, entry.Description, entry.Example)
				return nil
			}
			for _, entry := range fallacy.All() {
				fmt.Printf("%s\n  %s\n", entry.Name, entry.Description)
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Show build/version metadata",
		Example: "  dnachat version",
		RunE: func(cmd *cobra.Command, args []string) error {
			printVersion()
			return nil
		},
	}
}
