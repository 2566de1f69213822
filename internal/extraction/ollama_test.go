package extraction

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Ollama", func() {
	var (
		server  *ghttp.Server
		backend *Ollama
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		var err error
		backend, err = NewOllama(server.URL(), Config{Model: "qwen2.5:7b", StructuredOutput: true})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("Generate", func() {
		var (
			text string
			err  error
		)

		JustBeforeEach(func() {
			text, err = backend.Generate(context.Background(), "プロンプト", true)
		})

		When("the chat call succeeds", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.CombineHandlers(
					ghttp.VerifyRequest("POST", "/api/chat"),
					ghttp.VerifyJSONRepresenting(ollamaChatRequest{
						Model:    "qwen2.5:7b",
						Stream:   false,
						Format:   "json",
						Messages: []ollamaMessage{{Role: "user", Content: "プロンプト"}},
						Options:  &ollamaOptions{Temperature: 0},
					}),
					ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
						Message: ollamaMessage{Role: "assistant", Content: `{"store":"ABC"}`},
						Done:    true,
					}),
				))
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the message content", func() {
				Expect(text).To(Equal(`{"store":"ABC"}`))
			})
		})

		When("structured output is disabled", func() {
			BeforeEach(func() {
				var newErr error
				backend, newErr = NewOllama(server.URL(), Config{Model: "qwen2.5:7b"})
				Expect(newErr).NotTo(HaveOccurred())

				server.AppendHandlers(ghttp.CombineHandlers(
					ghttp.VerifyRequest("POST", "/api/chat"),
					ghttp.VerifyJSONRepresenting(ollamaChatRequest{
						Model:    "qwen2.5:7b",
						Stream:   false,
						Messages: []ollamaMessage{{Role: "user", Content: "プロンプト"}},
						Options:  &ollamaOptions{Temperature: 0},
					}),
					ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
						Message: ollamaMessage{Role: "assistant", Content: "ok"},
						Done:    true,
					}),
				))
			})

			It("should omit the format field", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(text).To(Equal("ok"))
			})
		})

		When("the server returns an error status", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not found"))
			})

			It("classifies it as a backend error", func() {
				Expect(IsKind(err, KindBackendError)).To(BeTrue())
			})

			It("reports the status and body", func() {
				Expect(err.Error()).To(ContainSubstring("status 500"))
				Expect(err.Error()).To(ContainSubstring("model not found"))
			})
		})

		When("the response has no content", func() {
			BeforeEach(func() {
				server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{Done: true}))
			})

			It("classifies it as a backend error", func() {
				Expect(IsKind(err, KindBackendError)).To(BeTrue())
				Expect(err.Error()).To(ContainSubstring("no response from ollama"))
			})
		})

		When("the server is unreachable", func() {
			BeforeEach(func() {
				server.Close()
			})

			It("classifies it as a backend error", func() {
				Expect(IsKind(err, KindBackendError)).To(BeTrue())
				Expect(err.Error()).To(ContainSubstring("calling ollama API"))
			})
		})
	})

	Describe("Name", func() {
		It("should identify the backend", func() {
			Expect(backend.Name()).To(Equal("ollama"))
		})
	})

	Describe("NewOllama", func() {
		When("no base URL is given", func() {
			It("should default to the local server", func() {
				b, err := NewOllama("", Config{})
				Expect(err).NotTo(HaveOccurred())
				Expect(b.baseURL).To(Equal("http://localhost:11434"))
			})
		})

		When("no model is given", func() {
			It("should default the model", func() {
				b, err := NewOllama(server.URL(), Config{})
				Expect(err).NotTo(HaveOccurred())
				Expect(b.cfg.Model).To(Equal(DefaultOllamaModel))
			})
		})
	})
})
