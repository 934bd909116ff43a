package api_test

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Threads API", func() {
	var (
		f      *fixture
		taskID string
	)

	BeforeEach(func() {
		f = newFixture(false)
		taskID = f.createTask(map[string]any{"title": "X", "created_by": "a1", "assigned_to": "a2"})
	})

	It("notifies the mentioned agent and the un-mentioned subscriber", func() {
		w := f.do(http.MethodPost, "/api/tasks/"+taskID+"/messages",
			map[string]any{"from_agent_id": "a3", "content": "@a2 check this"})
		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(decode(w)["mentions"]).To(ConsistOf("a2"))

		w = f.do(http.MethodGet, "/api/agents/a1/notifications", nil)
		notes := decode(w)["notifications"].([]any)
		Expect(notes).To(HaveLen(1))
		Expect(notes[0].(map[string]any)["content"]).To(Equal(`New comment from @a3 in "X"`))

		w = f.do(http.MethodGet, "/api/agents/a2/notifications", nil)
		Expect(decode(w)["notifications"]).To(HaveLen(2))

		w = f.do(http.MethodGet, "/api/tasks/"+taskID+"/messages", nil)
		Expect(decode(w)["messages"]).To(HaveLen(1))
	})

	It("returns 404 when posting to an unknown task", func() {
		w := f.do(http.MethodPost, "/api/tasks/nope/messages", map[string]any{"from_agent_id": "a3", "content": "hi"})
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("reports already_subscribed on a repeated subscribe", func() {
		w := f.do(http.MethodPost, "/api/tasks/"+taskID+"/subscribe", map[string]any{"agent_id": "a4"})
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)["already_subscribed"]).To(BeFalse())

		w = f.do(http.MethodPost, "/api/tasks/"+taskID+"/subscribe", map[string]any{"agent_id": "a4"})
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)["already_subscribed"]).To(BeTrue())

		w = f.do(http.MethodGet, "/api/tasks/"+taskID+"/subscribers", nil)
		Expect(decode(w)["subscribers"]).To(ConsistOf("a1", "a2", "a4"))
	})

	It("returns 404 when unsubscribing a non-subscriber", func() {
		w := f.do(http.MethodPost, "/api/tasks/"+taskID+"/unsubscribe", map[string]any{"agent_id": "a9"})
		Expect(w.Code).To(Equal(http.StatusNotFound))

		w = f.do(http.MethodPost, "/api/tasks/"+taskID+"/unsubscribe", map[string]any{"agent_id": "a2"})
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("marks an agent's notifications read", func() {
		w := f.do(http.MethodPost, "/api/agents/a2/notifications/read", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)["marked"]).To(BeEquivalentTo(1))

		w = f.do(http.MethodGet, "/api/notifications/undelivered", nil)
		Expect(decode(w)["notifications"]).To(BeEmpty())

		w = f.do(http.MethodGet, "/api/agents/a2/notifications?all=true", nil)
		Expect(decode(w)["notifications"]).To(HaveLen(1))
	})

	It("marks a single notification delivered and 404s on an unknown one", func() {
		id := f.repo.state.Notifications[0].ID
		w := f.do(http.MethodPost, "/api/notifications/"+id+"/delivered", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(f.repo.state.Notifications[0].Delivered).To(BeTrue())

		w = f.do(http.MethodPost, "/api/notifications/nope/delivered", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
