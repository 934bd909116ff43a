package api_test

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Agents API", func() {
	var f *fixture

	BeforeEach(func() {
		f = newFixture(true)
		w := f.do(http.MethodPost, "/api/admin/agents/initialize", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)["inserted"]).To(BeEquivalentTo(6))
	})

	It("lists the default roster", func() {
		w := f.do(http.MethodGet, "/api/agents", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)["agents"]).To(HaveLen(6))

		w = f.do(http.MethodGet, "/api/agents/marketing_lead", nil)
		Expect(decode(w)).To(HaveKeyWithValue("level", "LEAD"))
	})

	It("records heartbeats and 404s on unknown agents", func() {
		w := f.do(http.MethodPost, "/api/agents/content_seo/heartbeat", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(string(f.repo.state.Agents["content_seo"].Status)).To(Equal("active"))

		w = f.do(http.MethodPost, "/api/agents/ghost/heartbeat", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("validates agent status updates", func() {
		w := f.do(http.MethodPut, "/api/agents/content_seo/status", map[string]any{"status": "blocked"})
		Expect(w.Code).To(Equal(http.StatusOK))

		w = f.do(http.MethodPut, "/api/agents/content_seo/status", map[string]any{"status": "asleep"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("sets and clears the current task", func() {
		w := f.do(http.MethodPut, "/api/agents/partner_scout/current-task", map[string]any{"task_id": "t1"})
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(f.repo.state.Agents["partner_scout"].CurrentTaskID).To(Equal("t1"))

		w = f.do(http.MethodPut, "/api/agents/partner_scout/current-task", map[string]any{})
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(string(f.repo.state.Agents["partner_scout"].Status)).To(Equal("idle"))
	})

	It("requires an actor to reset the roster and audits the reset", func() {
		w := f.do(http.MethodPost, "/api/admin/agents/reset", map[string]any{})
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		w = f.do(http.MethodPost, "/api/admin/agents/reset", map[string]any{"actor": "ops"})
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)["count"]).To(BeEquivalentTo(6))

		w = f.do(http.MethodGet, "/api/agents/ops/activities", nil)
		acts := decode(w)["activities"].([]any)
		Expect(acts).To(HaveLen(1))
		Expect(acts[0].(map[string]any)["action"]).To(Equal("reset"))
	})

	It("broadcasts to every agent and collects failures", func() {
		f.deliverer.fail["content_seo"] = true

		w := f.do(http.MethodPost, "/api/broadcast", map[string]any{"message": "standup in 5"})
		Expect(w.Code).To(Equal(http.StatusOK))
		resp := decode(w)
		Expect(resp["sent"]).To(BeEquivalentTo(5))
		Expect(resp["failed"]).To(BeEquivalentTo(1))
		Expect(f.deliverer.sent).To(ContainElement("marketing_lead|[Broadcast] standup in 5"))
	})

	It("sends a direct message and maps delivery failures to 502", func() {
		w := f.do(http.MethodPost, "/api/send", map[string]any{"agent_id": "partner_scout", "message": "ping"})
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(f.deliverer.sent).To(ConsistOf("partner_scout|ping"))

		f.deliverer.fail["partner_scout"] = true
		w = f.do(http.MethodPost, "/api/send", map[string]any{"agent_id": "partner_scout", "message": "ping"})
		Expect(w.Code).To(Equal(http.StatusBadGateway))
	})

	It("posts standups and upserts within the day", func() {
		w := f.do(http.MethodPost, "/api/standups", map[string]any{"agent_id": "content_seo", "completed": []string{"draft"}})
		Expect(w.Code).To(Equal(http.StatusCreated))

		w = f.do(http.MethodPost, "/api/standups", map[string]any{"agent_id": "content_seo", "planned": []string{"edit"}})
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decode(w)["created"]).To(BeFalse())

		w = f.do(http.MethodGet, "/api/standups", nil)
		standups := decode(w)["standups"].([]any)
		Expect(standups).To(HaveLen(1))
		Expect(standups[0].(map[string]any)["planned"]).To(ConsistOf("edit"))

		w = f.do(http.MethodGet, "/api/standups?date=yesterday", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})

var _ = Describe("Delivery endpoints without a deliverer", func() {
	It("answers 503", func() {
		f := newFixture(false)
		w := f.do(http.MethodPost, "/api/broadcast", map[string]any{"message": "hi"})
		Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
		w = f.do(http.MethodPost, "/api/send", map[string]any{"agent_id": "a", "message": "hi"})
		Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
	})
})
