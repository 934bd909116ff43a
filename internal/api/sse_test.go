package api_test

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/designscozyroom-lab/missioncontrol/internal/api"
)

var _ = Describe("SSEHub", func() {
	It("publishes a change event with increasing revisions on Trigger", func() {
		hub := api.NewSSEHub()
		ch := hub.Subscribe()
		defer hub.Unsubscribe(ch)

		hub.Trigger()
		hub.Trigger()

		var first, second api.ChangeEvent
		Expect(json.Unmarshal(<-ch, &first)).To(Succeed())
		Expect(json.Unmarshal(<-ch, &second)).To(Succeed())
		Expect(first.Type).To(Equal("changed"))
		Expect(second.Revision).To(Equal(first.Revision + 1))
	})

	It("unsubscribes idempotently", func() {
		hub := api.NewSSEHub()
		ch := hub.Subscribe()
		Expect(hub.Subscribers()).To(Equal(1))
		hub.Unsubscribe(ch)
		hub.Unsubscribe(ch)
		Expect(hub.Subscribers()).To(Equal(0))
	})

	It("streams service writes to /api/events", func() {
		f := newFixture(false)
		srv := httptest.NewServer(f.router)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/api/events")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.Header.Get("Content-Type")).To(Equal("text/event-stream"))

		lines := make(chan string, 16)
		go func() {
			defer GinkgoRecover()
			scanner := bufio.NewScanner(resp.Body)
			for scanner.Scan() {
				if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
					lines <- strings.TrimPrefix(line, "data: ")
				}
			}
			close(lines)
		}()

		Eventually(lines, 2*time.Second).Should(Receive(ContainSubstring("connected")))
		Eventually(f.hub.Subscribers).Should(Equal(1))

		_, err = f.svc.Subscribe("a1", "t1")
		Expect(err).NotTo(HaveOccurred())
		Eventually(lines, 2*time.Second).Should(Receive(ContainSubstring(`"type":"changed"`)))
	})
})
