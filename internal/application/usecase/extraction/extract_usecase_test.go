package extraction_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/billing-extractor/adapters/document"
	"github.com/khoahotran/billing-extractor/internal/application/schema"
	"github.com/khoahotran/billing-extractor/internal/application/service"
	extractionUC "github.com/khoahotran/billing-extractor/internal/application/usecase/extraction"
	"github.com/khoahotran/billing-extractor/internal/domain/extraction"
	"github.com/khoahotran/billing-extractor/internal/prompts"
	"github.com/khoahotran/billing-extractor/internal/testutil"
	"github.com/khoahotran/billing-extractor/pkg/apperror"
	"github.com/khoahotran/billing-extractor/pkg/logger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*extraction.Event
	err    error
}

func (p *recordingPublisher) PublishExtraction(_ context.Context, e *extraction.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

type ExtractUseCaseTestSuite struct {
	suite.Suite
	llm       *testutil.FakeLLM
	publisher *recordingPublisher
	docPath   string
	uc        *extractionUC.ExtractUseCase
}

func (s *ExtractUseCaseTestSuite) SetupTest() {
	dir := s.T().TempDir()
	s.docPath = filepath.Join(dir, "storage", "contract.pdf")
	s.Require().NoError(os.MkdirAll(filepath.Dir(s.docPath), 0o755))
	s.Require().NoError(os.WriteFile(s.docPath, testutil.MinimalPDF, 0o600))

	codec, err := schema.NewCodec(prompts.BillingSchema())
	s.Require().NoError(err)

	s.llm = &testutil.FakeLLM{}
	s.publisher = &recordingPublisher{}
	s.uc = extractionUC.NewExtractUseCase(
		testutil.NewRegistry(s.llm),
		document.NewFileSource(nil, logger.NewNopLogger()),
		codec,
		s.publisher,
		extractionUC.Options{DocumentPath: s.docPath, Prompt: extractionUC.DefaultPrompt()},
		logger.NewNopLogger(),
	)
}

func TestExtractUseCase(t *testing.T) {
	suite.Run(t, new(ExtractUseCaseTestSuite))
}

func (s *ExtractUseCaseTestSuite) TestMonthlyContract() {
	s.llm.Object = `{"billingPeriod":"monthly","billingTerm":12,"contractAmount":"$500"}`

	out, err := s.uc.Execute(context.Background(), extractionUC.ExtractInput{RequestID: "req-1"})
	s.Require().NoError(err)

	s.Require().NotNil(out.Result.BillingPeriod)
	s.Equal(extraction.PeriodMonthly, *out.Result.BillingPeriod)
	s.Require().NotNil(out.Result.BillingTerm)
	s.Equal(float64(12), *out.Result.BillingTerm)
	s.Require().NotNil(out.Result.ContractAmount)
	s.Equal("$500", *out.Result.ContractAmount)
	s.Equal("default", out.Model)
}

func (s *ExtractUseCaseTestSuite) TestRequestShape() {
	s.llm.Object = `{"billingPeriod":null,"billingTerm":null,"contractAmount":null}`

	_, err := s.uc.Execute(context.Background(), extractionUC.ExtractInput{})
	s.Require().NoError(err)

	s.Require().Len(s.llm.ObjectCalls, 1)
	req := s.llm.ObjectCalls[0]
	s.Equal(prompts.BillingSystemPrompt, req.System)
	s.Zero(req.Temperature)
	s.Require().Len(req.Messages, 1)
	s.Equal(service.RoleUser, req.Messages[0].Role)

	parts := req.Messages[0].Parts
	s.Require().Len(parts, 2)
	s.Equal(prompts.BillingUserInstruction, parts[0].Text)
	s.Equal("application/pdf", parts[1].MIMEType)
	s.Equal("contract.pdf", parts[1].Filename)
	s.Equal(testutil.MinimalPDF, parts[1].Data)

	s.Equal("contract_billing", s.llm.Schemas[0].Name)
}

func (s *ExtractUseCaseTestSuite) TestNoBillingInformationYieldsNulls() {
	s.llm.Object = `{"billingPeriod":null,"billingTerm":null,"contractAmount":null}`

	out, err := s.uc.Execute(context.Background(), extractionUC.ExtractInput{})
	s.Require().NoError(err)

	s.Nil(out.Result.BillingPeriod)
	s.Nil(out.Result.BillingTerm)
	s.Nil(out.Result.ContractAmount)
}

func (s *ExtractUseCaseTestSuite) TestMissingDocument() {
	s.Require().NoError(os.Remove(s.docPath))

	out, err := s.uc.Execute(context.Background(), extractionUC.ExtractInput{})

	s.Nil(out)
	s.ErrorIs(err, apperror.ErrDocumentNotFound)
	s.Zero(s.llm.ObjectCallCount(), "the model must not be called without a document")
	s.Require().Len(s.publisher.events, 1)
	s.Equal(extraction.StatusFailed, s.publisher.events[0].Status)
	s.Equal("document_not_found", s.publisher.events[0].ErrorKind)
}

func (s *ExtractUseCaseTestSuite) TestUpstreamFailure() {
	s.llm.Err = errors.New("context deadline exceeded")

	out, err := s.uc.Execute(context.Background(), extractionUC.ExtractInput{})

	s.Nil(out)
	s.ErrorIs(err, apperror.ErrUpstream)
	s.Equal(1, s.llm.ObjectCallCount(), "provider calls are not retried")
}

func (s *ExtractUseCaseTestSuite) TestRejectedAttachmentIsDocumentError() {
	s.llm.Err = fmt.Errorf("cannot inline contract.pdf: %w: pdf has no text layer", service.ErrAttachmentRejected)

	out, err := s.uc.Execute(context.Background(), extractionUC.ExtractInput{})

	s.Nil(out)
	s.ErrorIs(err, apperror.ErrDocumentIO)
	s.NotErrorIs(err, apperror.ErrUpstream)
	s.Equal(http.StatusInternalServerError, apperror.ToHTTPStatus(err))
	s.Equal("document_io_error", s.publisher.events[0].ErrorKind)
}

func (s *ExtractUseCaseTestSuite) TestOutOfEnumPeriodIsRejected() {
	s.llm.Object = `{"billingPeriod":"weekly","billingTerm":12,"contractAmount":"$500"}`

	out, err := s.uc.Execute(context.Background(), extractionUC.ExtractInput{})

	s.Nil(out)
	s.ErrorIs(err, apperror.ErrSchemaValidation)
	s.Require().Len(s.publisher.events, 1)
	s.Equal("schema_validation_error", s.publisher.events[0].ErrorKind)
	s.Empty(s.publisher.events[0].Result)
}

func (s *ExtractUseCaseTestSuite) TestRepeatedRequestsRereadAndReinvoke() {
	s.llm.Object = `{"billingPeriod":"yearly","billingTerm":24,"contractAmount":"€99"}`

	first, err := s.uc.Execute(context.Background(), extractionUC.ExtractInput{})
	s.Require().NoError(err)

	s.Require().NoError(os.WriteFile(s.docPath, append(testutil.MinimalPDF, []byte("% v2\n")...), 0o600))
	s.llm.Object = `{"billingPeriod":"yearly","billingTerm":24,"contractAmount":"€ 99"}`

	second, err := s.uc.Execute(context.Background(), extractionUC.ExtractInput{})
	s.Require().NoError(err)

	s.Equal(2, s.llm.ObjectCallCount())
	s.NotEqual(first.Document.SHA256, second.Document.SHA256)
	s.Equal(*first.Result.BillingPeriod, *second.Result.BillingPeriod)
}

func (s *ExtractUseCaseTestSuite) TestPublishesSuccessEvent() {
	s.llm.Object = `{"billingPeriod":"quarterly","billingTerm":null,"contractAmount":"$1,200"}`

	_, err := s.uc.Execute(context.Background(), extractionUC.ExtractInput{RequestID: "req-42"})
	s.Require().NoError(err)

	s.Require().Len(s.publisher.events, 1)
	e := s.publisher.events[0]
	s.Equal(extraction.StatusSucceeded, e.Status)
	s.Equal("req-42", e.RequestID)
	s.Equal(s.docPath, e.DocumentPath)
	s.Len(e.DocumentSHA256, 64)
	s.JSONEq(`{"billingPeriod":"quarterly","billingTerm":null,"contractAmount":"$1,200"}`, string(e.Result))
}

func (s *ExtractUseCaseTestSuite) TestPublishFailureDoesNotFailExtraction() {
	s.publisher.err = errors.New("broker unavailable")
	s.llm.Object = `{"billingPeriod":"monthly","billingTerm":12,"contractAmount":"$500"}`

	out, err := s.uc.Execute(context.Background(), extractionUC.ExtractInput{})

	s.NoError(err)
	s.NotNil(out)
}

func (s *ExtractUseCaseTestSuite) TestUnknownModel() {
	_, err := s.uc.Execute(context.Background(), extractionUC.ExtractInput{Model: "turbo"})

	s.ErrorIs(err, apperror.ErrUnknownModel)
	s.Zero(s.llm.ObjectCallCount())
}

func (s *ExtractUseCaseTestSuite) TestDocumentPathOverride() {
	other := filepath.Join(s.T().TempDir(), "other.pdf")
	require.NoError(s.T(), os.WriteFile(other, testutil.MinimalPDF, 0o600))
	s.llm.Object = `{"billingPeriod":null,"billingTerm":null,"contractAmount":null}`

	out, err := s.uc.Execute(context.Background(), extractionUC.ExtractInput{DocumentPath: other})
	s.Require().NoError(err)

	assert.Equal(s.T(), "other.pdf", out.Document.Name)
}
