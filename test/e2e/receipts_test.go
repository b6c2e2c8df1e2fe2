//go:build e2e

package e2e_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/openshift-assisted/ansible-receipts/test/e2e"
)

// Test Case

var _ = Describe("Collecting receipts of several producer processes", func() {
	var testConfig e2e.TestConfig
	var testContext e2e.TestContext

	BeforeEach(func(ctx SpecContext) {
		var err error

		testConfig = e2e.CreateTestConfig("receipts", GinkgoT().TempDir())

		testContext, err = e2e.CreateTestContext(ctx, testConfig, binary)
		Expect(err).NotTo(HaveOccurred())

		DeferCleanup(func(ctx SpecContext) {
			Expect(testContext.Shutdown(ctx)).To(Succeed())
		})
	})

	When("two producers report on hosts A and B", func() {
		It("should write the receipts once the run is complete", func(ctx SpecContext) {
			collector := testContext.StartCollector()

			By("emitting from two processes")
			Expect(testContext.Emit("worker-1",
				`{"callback":"playbook_on_play_start","args":{"name":"site"}}`,
				`{"callback":"facts_observed","args":{"host":"A","facts":{"os":"linux"}}}`,
				`{"callback":"playbook_on_task_start","args":{"name":"install"}}`,
				`{"callback":"runner_on_ok","args":{"host":"A","res":{"changed":true}}}`,
				`{"callback":"playbook_on_stats","args":{}}`,
			)).To(Succeed())

			Expect(testContext.Emit("worker-2",
				`{"callback":"playbook_on_task_start","args":{"name":"install"}}`,
				`not even json`,
				`{"callback":"runner_on_failed","args":{"host":"B","res":{},"ignore_errors":true}}`,
				`{"callback":"playbook_on_stats","args":{}}`,
			)).To(Succeed())

			By("not writing anything before completion")
			Consistently(func() error {
				_, err := testContext.ReadReceipts()

				return err
			}).WithTimeout(time.Second).Should(HaveOccurred())

			By("completing the run")
			Expect(testContext.Complete()).To(Succeed())
			Expect(collector.Wait()).To(Succeed())

			data, err := testContext.ReadReceipts()
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(MatchJSON(`{
				"A": {"facts": {"os": "linux"}, "tasks": [{"name": "install", "state": "ok", "res": {"changed": true}}], "stats": {"ok": 1, "changed": 1, "failed": 0, "unreachable": 0, "skipped": 0}},
				"B": {"facts": {}, "tasks": [{"name": "install", "state": "ok", "res": {}}], "stats": {"ok": 1, "changed": 0, "failed": 0, "unreachable": 0, "skipped": 0}}
			}`))
		}, SpecTimeout(2*time.Minute))
	})

	When("a producer input ends before playbook_on_stats", func() {
		It("should fail the producer", func(ctx context.Context) {
			err := testContext.Emit("worker-1",
				`{"callback":"playbook_on_task_start","args":{"name":"install"}}`,
				`{"callback":"runner_on_ok","args":{"host":"A","res":{}}}`,
			)
			Expect(err).To(MatchError(ContainSubstring("input ended before playbook_on_stats")))
		})
	})
})
