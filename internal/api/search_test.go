package api_test

import (
	"io"
	"log"
	"net/http"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/designscozyroom-lab/missioncontrol/internal/api"
	"github.com/designscozyroom-lab/missioncontrol/internal/search"
)

var _ = Describe("Search", func() {
	var (
		f     *fixture
		store *search.Store
		idx   *search.Indexer
	)

	BeforeEach(func() {
		f = newFixture(false)
		var err error
		store, err = search.Open(filepath.Join(GinkgoT().TempDir(), "search.sqlite"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(store.Close)

		logger := log.New(io.Discard, "", 0)
		idx = search.NewIndexer(store, f.svc, logger)
		f.router = api.NewRouter(api.NewHandler(f.svc, nil, logger), api.RouterConfig{Hub: f.hub, Search: store})
	})

	It("finds tasks and thread comments", func() {
		id := f.createTask(map[string]any{"title": "Refresh pricing page", "created_by": "marketing_lead"})
		w := f.do(http.MethodPost, "/api/tasks/"+id+"/messages", map[string]any{
			"from_agent_id": "site_researcher",
			"content":       "competitor pricing screenshots attached",
		})
		Expect(w.Code).To(Equal(http.StatusCreated), w.Body.String())
		idx.Sync()

		w = f.do(http.MethodGet, "/api/search?q=pricing", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)["results"]).To(HaveLen(2))

		w = f.do(http.MethodGet, "/api/search?q=screenshots&kind=message", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		results := decode(w)["results"].([]any)
		Expect(results).To(HaveLen(1))
		hit := results[0].(map[string]any)
		Expect(hit["kind"]).To(Equal("message"))
		Expect(hit["task_id"]).To(Equal(id))
	})

	It("rejects a missing query or unknown kind", func() {
		Expect(f.do(http.MethodGet, "/api/search", nil).Code).To(Equal(http.StatusBadRequest))
		Expect(f.do(http.MethodGet, "/api/search?q=x&kind=agent", nil).Code).To(Equal(http.StatusBadRequest))
	})

	It("is not routed without an index", func() {
		plain := newFixture(false)
		Expect(plain.do(http.MethodGet, "/api/search?q=x", nil).Code).To(Equal(http.StatusNotFound))
	})
})
