package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dnalab/dnachat/pkg/config"
	"github.com/dnalab/dnachat/pkg/dna"
	"github.com/dnalab/dnachat/pkg/logger"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig().Gemini
	cfg.APIBase = srv.URL
	return NewClient(cfg, "test-key", 5*time.Second, logger.Nop())
}

// candidateReply wraps payload the way generateContent returns text parts.
func candidateReply(t *testing.T, payload interface{}) []byte {
	t.Helper()
	text, err := json.Marshal(payload)
	require.NoError(t, err)
	envelope := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"role":  "model",
				"parts": []map[string]interface{}{{"text": string(text)}},
			}},
		},
	}
	raw, err := json.Marshal(envelope)
	require.NoError(t, err)
	return raw
}

func TestConverseParsesReplyAndFallacies(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		body, _ := io.ReadAll(r.Body)
		var req map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &req))
		require.Contains(t, req, "systemInstruction")
		require.Contains(t, req, "generationConfig")

		w.Write(candidateReply(t, map[string]interface{}{
			"responseText": "Prove the premise.",
			"fallacies": []map[string]string{{
				"name":               "Begging the Question",
				"description":        "Assumes the conclusion.",
				"exampleFromContext": "it is true because it is",
			}},
		}))
	})

	history := []dna.Message{dna.NewMessage(dna.RoleUser, "Everything I say is true.")}
	reply, err := c.Converse(context.Background(), dna.SeedProfile(), history, dna.DefaultSettings())
	require.NoError(t, err)
	require.Equal(t, "Prove the premise.", reply.ResponseText)
	require.Len(t, reply.Fallacies, 1)
	require.Equal(t, "Begging the Question", reply.Fallacies[0].Name)
}

func TestConverseMissingResponseTextIsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(candidateReply(t, map[string]interface{}{
			"fallacies": []map[string]string{},
		}))
	})

	_, err := c.Converse(context.Background(), dna.SeedProfile(), nil, dna.DefaultSettings())
	require.ErrorIs(t, err, ErrMalformed)
}

func TestConverseIncompleteFallacyEntryIsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(candidateReply(t, map[string]interface{}{
			"responseText": "ok",
			"fallacies":    []map[string]string{{"name": "Straw Man"}},
		}))
	})

	_, err := c.Converse(context.Background(), dna.SeedProfile(), nil, dna.DefaultSettings())
	require.ErrorIs(t, err, ErrMalformed)
}

func TestConverseTransportFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.Converse(context.Background(), dna.SeedProfile(), nil, dna.DefaultSettings())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrMalformed)
}

func TestExtractProfileParsesMetrics(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &req))
		gc := req["generationConfig"].(map[string]interface{})
		require.Equal(t, "application/json", gc["responseMimeType"])
		require.Contains(t, gc, "responseSchema")
		require.Contains(t, gc, "thinkingConfig")

		w.Write(candidateReply(t, map[string]interface{}{
			"name":    "Hume",
			"summary": "Empiricist skeptic.",
			"metrics": map[string]interface{}{
				"behavioralTraits":     []string{"Calm"},
				"epistemology":         "Empiricism",
				"moralAxioms":          []string{"Sentiment grounds morals"},
				"rhetoricalStructure":  "Essayistic",
				"linguisticPatterns":   []string{},
				"cognitiveBiases":      []string{},
				"valueHierarchy":       []string{"Evidence"},
				"emotionalConstraints": "Even-keeled",
			},
		}))
	})

	got, err := c.ExtractProfile(context.Background(), "some uploaded text")
	require.NoError(t, err)
	require.Equal(t, "Empiricist skeptic.", got.Summary)
	require.Equal(t, "Empiricism", got.Metrics.Epistemology)
	require.NotNil(t, got.Metrics.LinguisticPatterns)
}

func TestExtractProfileMissingMetricsIsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(candidateReply(t, map[string]interface{}{
			"name":    "Hume",
			"summary": "Empiricist skeptic.",
		}))
	})

	_, err := c.ExtractProfile(context.Background(), "text")
	require.ErrorIs(t, err, ErrMalformed)
}

func TestExtractProfileInvalidJSONTextIsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		envelope := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]interface{}{{"text": "not json at all"}},
				}},
			},
		}
		raw, _ := json.Marshal(envelope)
		w.Write(raw)
	})

	_, err := c.ExtractProfile(context.Background(), "text")
	require.ErrorIs(t, err, ErrMalformed)
}

func TestSetAPIKeyRotatesInPlace(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("x-goog-api-key"))
		w.Write(candidateReply(t, map[string]interface{}{"responseText": "ok"}))
	})

	_, err := c.Converse(context.Background(), dna.SeedProfile(), nil, dna.DefaultSettings())
	require.NoError(t, err)

	c.SetAPIKey("rotated-key")
	_, err = c.Converse(context.Background(), dna.SeedProfile(), nil, dna.DefaultSettings())
	require.NoError(t, err)

	require.Equal(t, []string{"test-key", "rotated-key"}, seen)
}

func TestMissingKeyFailsBeforeTransport(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	c.SetAPIKey("")

	_, err := c.Converse(context.Background(), dna.SeedProfile(), nil, dna.DefaultSettings())
	require.Error(t, err)
	require.False(t, called)
}

func TestSynthesizeSpeechDecodesInlineAudio(t *testing.T) {
	audio := []byte{0x52, 0x49, 0x46, 0x46, 0x01, 0x02}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		envelope := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]interface{}{
						{"inlineData": map[string]string{
							"mimeType": "audio/wav",
							"data":     base64.StdEncoding.EncodeToString(audio),
						}},
					},
				}},
			},
		}
		raw, _ := json.Marshal(envelope)
		w.Write(raw)
	})

	got, err := c.SynthesizeSpeech(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, audio, got)
}

func TestSynthesizeSpeechNoAudioIsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(candidateReply(t, map[string]interface{}{"responseText": "text instead"}))
	})

	_, err := c.SynthesizeSpeech(context.Background(), "hello")
	require.ErrorIs(t, err, ErrMalformed)
}
