package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractJSONObject", func() {
	var (
		raw string
		obj map[string]any
		err error
	)

	JustBeforeEach(func() {
		obj, err = ExtractJSONObject(raw)
	})

	When("the text is already a clean object", func() {
		BeforeEach(func() {
			raw = `{"store":"ABC","total_yen":1500}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return the decoded object", func() {
			Expect(obj).To(HaveKeyWithValue("store", "ABC"))
			Expect(obj).To(HaveKeyWithValue("total_yen", float64(1500)))
		})
	})

	When("the object is padded with whitespace", func() {
		BeforeEach(func() {
			raw = "\n\n  {\"store\":\"ABC\"}  \n"
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return the decoded object", func() {
			Expect(obj).To(HaveKeyWithValue("store", "ABC"))
		})
	})

	When("the object sits in a json code fence", func() {
		BeforeEach(func() {
			raw = "```json\n{\"store\":\"ABC\"}\n```"
		})

		It("should strip the fence", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(obj).To(HaveKeyWithValue("store", "ABC"))
		})
	})

	When("the fence tag is upper case", func() {
		BeforeEach(func() {
			raw = "```JSON\n{\"store\":\"ABC\"}\n```"
		})

		It("should strip the fence", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(obj).To(HaveKeyWithValue("store", "ABC"))
		})
	})

	When("the fence has no language tag", func() {
		BeforeEach(func() {
			raw = "```\n{\"store\":\"ABC\"}\n```"
		})

		It("should strip the fence", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(obj).To(HaveKeyWithValue("store", "ABC"))
		})
	})

	When("prose surrounds the object", func() {
		BeforeEach(func() {
			raw = "以下が抽出結果です。\n{\"store\":\"ABC\"}\nご確認ください。"
		})

		It("should take the span between the braces", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(obj).To(HaveKeyWithValue("store", "ABC"))
		})
	})

	When("prose surrounds a fenced object", func() {
		BeforeEach(func() {
			raw = "結果:\n```json\n{\"store\":\"ABC\"}\n```"
		})

		It("should still recover the object", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(obj).To(HaveKeyWithValue("store", "ABC"))
		})
	})

	When("the object nests further objects", func() {
		BeforeEach(func() {
			raw = "結果: {\"items\":[{\"name\":\"パン\"}]} 以上です"
		})

		It("should span from the first to the last brace", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(obj).To(HaveKey("items"))
		})
	})

	When("the object is wrapped in a singleton array", func() {
		BeforeEach(func() {
			raw = `[{"store":"ABC"}]`
		})

		It("should unwrap the array", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(obj).To(HaveKeyWithValue("store", "ABC"))
		})
	})

	When("the array holds several objects", func() {
		BeforeEach(func() {
			raw = `[{"store":"ABC"},{"store":"XYZ"}]`
		})

		It("should take the first element", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(obj).To(HaveKeyWithValue("store", "ABC"))
		})
	})

	When("the array is empty", func() {
		BeforeEach(func() {
			raw = "[]"
		})

		It("classifies it as a malformed response", func() {
			Expect(IsKind(err, KindMalformedResponse)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("response array is empty"))
		})
	})

	When("the array holds no object", func() {
		BeforeEach(func() {
			raw = "[1, 2, 3]"
		})

		It("classifies it as a malformed response", func() {
			Expect(IsKind(err, KindMalformedResponse)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("response array holds no object"))
		})
	})

	When("the braces hold invalid JSON", func() {
		BeforeEach(func() {
			raw = `{"store": ABC}`
		})

		It("classifies it as a malformed response", func() {
			Expect(IsKind(err, KindMalformedResponse)).To(BeTrue())
		})

		It("keeps the raw response", func() {
			Expect(RawResponse(err)).To(Equal(raw))
		})
	})

	When("the text holds no braces at all", func() {
		BeforeEach(func() {
			raw = "すみません、このテキストからは情報を抽出できませんでした。"
		})

		It("classifies it as a malformed response", func() {
			Expect(IsKind(err, KindMalformedResponse)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("no JSON object found in response"))
		})

		It("keeps the raw response", func() {
			Expect(RawResponse(err)).To(Equal(raw))
		})
	})
})
