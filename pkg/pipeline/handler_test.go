package pipeline_test

import (
	"context"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/openshift-assisted/ansible-receipts/pkg/pipeline"
	"github.com/openshift-assisted/ansible-receipts/pkg/pipeline/mock"
)

// Test JSON line handler

type Line struct {
	Value string `json:"value"`
}

var _ = Describe("Testing JSONLineHandler", func() {
	var ctrl *gomock.Controller
	var proc *mock.MockProcessing[Line]
	var errProc *mock.MockProcessing[pipeline.ErrProcessingError]
	var handler pipeline.JSONLineHandler[Line]

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		proc = mock.NewMockProcessing[Line](ctrl)
		errProc = mock.NewMockProcessing[pipeline.ErrProcessingError](ctrl)
		handler = pipeline.NewJSONLineHandler[Line]("stdin", proc, errProc)
	})

	When("every line is valid", func() {
		BeforeEach(func() {
			gomock.InOrder(
				proc.EXPECT().Process(gomock.Any(), Line{Value: "a"}).Return(nil).Times(1),
				proc.EXPECT().Process(gomock.Any(), Line{Value: "b"}).Return(nil).Times(1),
			)
		})

		It("should process the lines in order and skip blank lines", func(ctx SpecContext) {
			n, err := handler.Consume(ctx, strings.NewReader("{\"value\":\"a\"}\n\n  \n{\"value\":\"b\"}\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(2))
		})
	})

	When("a line is not valid json", func() {
		var received pipeline.ErrProcessingError

		BeforeEach(func() {
			proc.EXPECT().Process(gomock.Any(), Line{Value: "b"}).Return(nil).Times(1)
			errProc.EXPECT().Process(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, pErr pipeline.ErrProcessingError) error {
				received = pErr

				return nil
			}).Times(1)
		})

		It("should report an unmarshal error and continue", func(ctx SpecContext) {
			n, err := handler.Consume(ctx, strings.NewReader("{oops\n{\"value\":\"b\"}\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))

			Expect(received.Category).To(Equal(pipeline.UnmarshalErrorCategory))
			Expect(received.Source).To(Equal("stdin:1"))
			Expect(string(received.Payload)).To(Equal("{oops"))
		})
	})

	When("the processing fails with a categorized error", func() {
		var received pipeline.ErrProcessingError

		BeforeEach(func() {
			proc.EXPECT().Process(gomock.Any(), Line{Value: "a"}).Return(pipeline.NewErrProcessingError(errOneError, oneCategory, nil)).Times(1)
			errProc.EXPECT().Process(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, pErr pipeline.ErrProcessingError) error {
				received = pErr

				return nil
			}).Times(1)
		})

		It("should keep the category", func(ctx SpecContext) {
			n, err := handler.Consume(ctx, strings.NewReader("{\"value\":\"a\"}\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(0))
			Expect(received.Category).To(Equal(oneCategory))
			Expect(received).Should(MatchError(errOneError))
		})
	})
})

var _ = Describe("Testing JSONLineHandler with a fatal failure", func() {
	It("should stop at the failing line", func(ctx SpecContext) {
		ctrl := gomock.NewController(GinkgoT())
		proc := mock.NewMockProcessing[Line](ctrl)
		errProc := mock.NewMockProcessing[pipeline.ErrProcessingError](ctrl)

		gomock.InOrder(
			proc.EXPECT().Process(gomock.Any(), Line{Value: "a"}).Return(nil).Times(1),
			proc.EXPECT().Process(gomock.Any(), Line{Value: "b"}).Return(pipeline.NewErrFatalError(errOneError)).Times(1),
		)
		errProc.EXPECT().Process(gomock.Any(), gomock.Any()).Return(nil).Times(1)

		handler := pipeline.NewJSONLineHandler[Line]("stdin", proc, errProc)

		n, err := handler.Consume(ctx, strings.NewReader("{\"value\":\"a\"}\n{\"value\":\"b\"}\n{\"value\":\"c\"}\n"))
		Expect(err).To(MatchError(pipeline.ErrFatalError))
		Expect(err).To(MatchError(errOneError))
		Expect(n).To(Equal(1))
	})
})
