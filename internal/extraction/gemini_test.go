package extraction

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NewGemini", func() {
	When("the api key is missing", func() {
		It("classifies it as backend unavailable", func() {
			backend, err := NewGemini(context.Background(), "", Config{})
			Expect(backend).To(BeNil())
			Expect(IsKind(err, KindBackendUnavailable)).To(BeTrue())
		})
	})
})
