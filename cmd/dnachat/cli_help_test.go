package main

import (
	"bytes"
	"strings"
	"testing"
)

func runRootCommandForTest(args ...string) (string, error) {
	root := buildRootCommand()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootHelpListsCommands(t *testing.T) {
	t.Parallel()

	output, err := runRootCommandForTest("--help")
	if err != nil {
		t.Fatalf("execute --help: %v\nOutput:\n%s", err, output)
	}

	for _, want := range []string{
		"chat", "upload", "profiles", "purge", "log",
		"settings", "persona", "auth", "fallacies", "version",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("root help missing command %q\nOutput:\n%s", want, output)
		}
	}
}

func TestSubcommandHelp(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args []string
		want []string
	}{
		{"profiles", []string{"profiles", "--help"}, []string{"list", "select", "delete"}},
		{"settings", []string{"settings", "--help"}, []string{"show", "set"}},
		{"auth", []string{"auth", "--help"}, []string{"set-key", "status"}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			output, err := runRootCommandForTest(tc.args...)
			if err != nil {
				t.Fatalf("execute %v: %v\nOutput:\n%s", tc.args, err, output)
			}
			for _, want := range tc.want {
				if !strings.Contains(output, want) {
					t.Errorf("%s help missing %q\nOutput:\n%s", tc.name, want, output)
				}
			}
		})
	}
}

func TestRootWithoutSubcommandFails(t *testing.T) {
	t.Parallel()

	_, err := runRootCommandForTest()
	if err == nil {
		t.Fatal("bare invocation should require a subcommand")
	}
}
