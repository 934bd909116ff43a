package api_test

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Documents API", func() {
	var f *fixture

	BeforeEach(func() {
		f = newFixture(false)
	})

	It("updates in place on a matching source_path", func() {
		body := map[string]any{"title": "Plan", "content": "v1", "type": "notes", "agent_id": "a1", "source_path": "/plan.md"}
		w := f.do(http.MethodPost, "/api/documents", body)
		Expect(w.Code).To(Equal(http.StatusCreated))
		id := decode(w)["id"]

		body["content"] = "v2"
		w = f.do(http.MethodPost, "/api/documents", body)
		Expect(w.Code).To(Equal(http.StatusOK))
		resp := decode(w)
		Expect(resp["id"]).To(Equal(id))
		Expect(resp["outcome"]).To(Equal("updated"))

		w = f.do(http.MethodGet, "/api/documents/"+id.(string), nil)
		Expect(decode(w)["content"]).To(Equal("v2"))
	})

	It("returns the existing id on a content_hash hit", func() {
		body := map[string]any{"title": "A", "type": "report", "agent_id": "a1", "content_hash": "h1"}
		id := decode(f.do(http.MethodPost, "/api/documents", body))["id"]

		body["title"] = "B"
		w := f.do(http.MethodPost, "/api/documents", body)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)).To(HaveKeyWithValue("outcome", "unchanged"))
		Expect(decode(w)).To(HaveKeyWithValue("id", id))
		Expect(f.repo.state.Documents).To(HaveLen(1))
	})

	It("rejects an unknown document type", func() {
		w := f.do(http.MethodPost, "/api/documents", map[string]any{"title": "A", "type": "memo", "agent_id": "a1"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("filters by agent", func() {
		f.do(http.MethodPost, "/api/documents", map[string]any{"title": "A", "type": "code", "agent_id": "a1"})
		f.do(http.MethodPost, "/api/documents", map[string]any{"title": "B", "type": "code", "agent_id": "a2"})

		w := f.do(http.MethodGet, "/api/documents?agent_id=a2", nil)
		docs := decode(w)["documents"].([]any)
		Expect(docs).To(HaveLen(1))
		Expect(docs[0].(map[string]any)["title"]).To(Equal("B"))
	})

	It("patches and 404s on unknown ids", func() {
		id := decode(f.do(http.MethodPost, "/api/documents", map[string]any{"title": "A", "type": "code", "agent_id": "a1"}))["id"].(string)
		w := f.do(http.MethodPatch, "/api/documents/"+id, map[string]any{"title": "A2"})
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(f.repo.state.Documents[0].Title).To(Equal("A2"))

		w = f.do(http.MethodGet, "/api/documents/missing", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
