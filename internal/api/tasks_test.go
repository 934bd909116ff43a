package api_test

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Tasks API", func() {
	var f *fixture

	BeforeEach(func() {
		f = newFixture(false)
	})

	It("serves /health", func() {
		w := f.do(http.MethodGet, "/health", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)["status"]).To(Equal("ok"))
	})

	It("creates an assigned task with subscriptions and one notification", func() {
		id := f.createTask(map[string]any{"title": "X", "created_by": "a1", "assigned_to": "a2"})

		w := f.do(http.MethodGet, "/api/tasks/"+id, nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		resp := decode(w)
		Expect(resp["status"]).To(Equal("assigned"))
		Expect(resp["priority"]).To(Equal("medium"))
		Expect(resp["subscribers"]).To(ConsistOf("a1", "a2"))

		Expect(f.repo.state.Notifications).To(HaveLen(1))
		Expect(f.repo.state.Notifications[0].MentionedAgentID).To(Equal("a2"))
	})

	It("returns 400 when required fields are missing", func() {
		w := f.do(http.MethodPost, "/api/tasks", map[string]any{"created_by": "a1"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 400 on malformed JSON", func() {
		w := f.do(http.MethodPost, "/api/tasks", `{`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 400 for an out-of-domain priority without writing", func() {
		w := f.do(http.MethodPost, "/api/tasks", map[string]any{"title": "X", "created_by": "a1", "priority": "asap"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(f.repo.state).To(BeNil())
	})

	It("returns 404 for an unknown task", func() {
		w := f.do(http.MethodGet, "/api/tasks/missing", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(decode(w)["error"]).To(Equal("not found"))

		w = f.do(http.MethodPost, "/api/tasks/missing/assign", map[string]any{"assigned_to": "a", "assigned_by": "b"})
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("assigns, moves status and patches a task", func() {
		id := f.createTask(map[string]any{"title": "X", "created_by": "a1"})

		w := f.do(http.MethodPost, "/api/tasks/"+id+"/assign", map[string]any{"assigned_to": "a3", "assigned_by": "a1"})
		Expect(w.Code).To(Equal(http.StatusOK))

		w = f.do(http.MethodPost, "/api/tasks/"+id+"/status", map[string]any{"status": "done", "agent_id": "a3"})
		Expect(w.Code).To(Equal(http.StatusOK))

		w = f.do(http.MethodPost, "/api/tasks/"+id+"/status", map[string]any{"status": "archived", "agent_id": "a3"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		w = f.do(http.MethodPatch, "/api/tasks/"+id, map[string]any{"title": "Y"})
		Expect(w.Code).To(Equal(http.StatusOK))

		task := f.repo.state.FindTask(id)
		Expect(task.Title).To(Equal("Y"))
		Expect(string(task.Status)).To(Equal("done"))
		Expect(task.AssignedTo).To(Equal("a3"))
	})

	It("filters the task list by status", func() {
		f.createTask(map[string]any{"title": "inbox one", "created_by": "a1"})
		f.createTask(map[string]any{"title": "assigned one", "created_by": "a1", "assigned_to": "a2"})

		w := f.do(http.MethodGet, "/api/tasks?status=inbox", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		tasks := decode(w)["tasks"].([]any)
		Expect(tasks).To(HaveLen(1))
		Expect(tasks[0].(map[string]any)["title"]).To(Equal("inbox one"))
	})
})
