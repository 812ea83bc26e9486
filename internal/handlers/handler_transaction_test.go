package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/exception-s/BankApplication/internal/apperrors"
	"github.com/exception-s/BankApplication/internal/core/domain"
	portssvc "github.com/exception-s/BankApplication/internal/core/ports/services"
	"github.com/exception-s/BankApplication/internal/dto"
	"github.com/exception-s/BankApplication/internal/handlers"
	"github.com/exception-s/BankApplication/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock TransferService ---
type MockTransferService struct {
	mock.Mock
}

func (m *MockTransferService) Transfer(ctx context.Context, req dto.TransferRequest, userID string) (*domain.Transaction, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransferService) Deposit(ctx context.Context, req dto.DepositRequest, userID string) (*domain.Transaction, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransferService) Withdraw(ctx context.Context, req dto.WithdrawRequest, userID string) (*domain.Transaction, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransferService) GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransferService) ListAccountTransactions(ctx context.Context, accountID string, limit int, offset int) ([]domain.Transaction, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.TransferSvc = (*MockTransferService)(nil)

// --- Test Suite ---
type TransactionHandlerTestSuite struct {
	suite.Suite
	router    *gin.Engine
	mockSvc   *MockTransferService
	jwtSecret string
	userID    string
}

// generateTestToken creates a dummy JWT for testing.
func (suite *TransactionHandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "bankapp-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *TransactionHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	handlers.RegisterValidators()
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	suite.userID = uuid.NewString()

	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockSvc = new(MockTransferService)
	v1 := suite.router.Group("/api/v1")
	handlers.RegisterTransactionRoutes(v1, suite.mockSvc)
}

// postJSON sends an authenticated POST with a JSON body and returns the recorder.
func (suite *TransactionHandlerTestSuite) postJSON(path string, body any) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	suite.Require().NoError(err)

	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(suite.userID))

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *TransactionHandlerTestSuite) errorBody(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// --- Test Cases ---

func (suite *TransactionHandlerTestSuite) TestTransfer_Success() {
	fromID := uuid.NewString()
	toID := uuid.NewString()
	expected := &domain.Transaction{
		TransactionID: uuid.NewString(),
		Amount:        decimal.RequireFromString("100"),
		FromAccountID: &fromID,
		ToAccountID:   &toID,
		Type:          domain.TypeTransfer,
		Timestamp:     time.Now(),
	}

	suite.mockSvc.On("Transfer", mock.Anything, mock.MatchedBy(func(r dto.TransferRequest) bool {
		return r.FromAccountID == fromID && r.ToAccountID == toID && r.Amount.Equal(decimal.RequireFromString("100"))
	}), suite.userID).Return(expected, nil).Once()

	w := suite.postJSON("/api/v1/transactions/transfer", gin.H{
		"fromAccountID": fromID,
		"toAccountID":   toID,
		"amount":        "100",
	})

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.TransactionResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(expected.TransactionID, resp.TransactionID)
	suite.mockSvc.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestTransfer_Unauthorized() {
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/transactions/transfer", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockSvc.AssertNotCalled(suite.T(), "Transfer", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionHandlerTestSuite) TestTransfer_InvalidAmount_Returns400() {
	suite.mockSvc.On("Transfer", mock.Anything, mock.Anything, suite.userID).
		Return(nil, apperrors.ErrInvalidAmount).Once()

	w := suite.postJSON("/api/v1/transactions/transfer", gin.H{
		"fromAccountID": uuid.NewString(),
		"toAccountID":   uuid.NewString(),
		"amount":        "-10",
	})

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TransactionHandlerTestSuite) TestTransfer_BadCurrencyCode_Returns400() {
	w := suite.postJSON("/api/v1/transactions/transfer", gin.H{
		"fromAccountID": uuid.NewString(),
		"toAccountID":   uuid.NewString(),
		"amount":        "10",
		"fromCurrency":  "DOLLARS",
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockSvc.AssertNotCalled(suite.T(), "Transfer", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionHandlerTestSuite) TestTransfer_SourceNotFound_Returns404WithSide() {
	missingID := uuid.NewString()
	suite.mockSvc.On("Transfer", mock.Anything, mock.Anything, suite.userID).
		Return(nil, apperrors.NewAccountNotFound(apperrors.SourceSide, missingID)).Once()

	w := suite.postJSON("/api/v1/transactions/transfer", gin.H{
		"fromAccountID": missingID,
		"toAccountID":   uuid.NewString(),
		"amount":        "10",
	})

	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal("source", suite.errorBody(w)["side"])
}

func (suite *TransactionHandlerTestSuite) TestTransfer_InsufficientFunds_Returns422() {
	suite.mockSvc.On("Transfer", mock.Anything, mock.Anything, suite.userID).
		Return(nil, apperrors.ErrInsufficientFunds).Once()

	w := suite.postJSON("/api/v1/transactions/transfer", gin.H{
		"fromAccountID": uuid.NewString(),
		"toAccountID":   uuid.NewString(),
		"amount":        "10",
	})

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *TransactionHandlerTestSuite) TestTransfer_ConversionFailure_Returns502() {
	suite.mockSvc.On("Transfer", mock.Anything, mock.Anything, suite.userID).
		Return(nil, apperrors.ErrConversionFailure).Once()

	w := suite.postJSON("/api/v1/transactions/transfer", gin.H{
		"fromAccountID": uuid.NewString(),
		"toAccountID":   uuid.NewString(),
		"amount":        "10",
	})

	suite.Equal(http.StatusBadGateway, w.Code)
}

func (suite *TransactionHandlerTestSuite) TestTransfer_ConcurrentConflict_Returns409() {
	suite.mockSvc.On("Transfer", mock.Anything, mock.Anything, suite.userID).
		Return(nil, apperrors.ErrConcurrentConflict).Once()

	w := suite.postJSON("/api/v1/transactions/transfer", gin.H{
		"fromAccountID": uuid.NewString(),
		"toAccountID":   uuid.NewString(),
		"amount":        "10",
	})

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *TransactionHandlerTestSuite) TestDeposit_Success() {
	toID := uuid.NewString()
	expected := &domain.Transaction{
		TransactionID: uuid.NewString(),
		Amount:        decimal.RequireFromString("250.50"),
		ToAccountID:   &toID,
		Type:          domain.TypeDeposit,
		Timestamp:     time.Now(),
	}

	suite.mockSvc.On("Deposit", mock.Anything, mock.MatchedBy(func(r dto.DepositRequest) bool {
		return r.ToAccountID == toID && r.Amount.Equal(decimal.RequireFromString("250.50"))
	}), suite.userID).Return(expected, nil).Once()

	w := suite.postJSON("/api/v1/transactions/deposit", gin.H{
		"toAccountID": toID,
		"amount":      "250.50",
	})

	suite.Equal(http.StatusCreated, w.Code)
	suite.mockSvc.AssertExpectations(suite.T())
}

func (suite *TransactionHandlerTestSuite) TestWithdraw_TargetMissingBody_Returns400() {
	w := suite.postJSON("/api/v1/transactions/withdraw", gin.H{"amount": "10"})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockSvc.AssertNotCalled(suite.T(), "Withdraw", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionHandlerTestSuite) TestGetTransaction_NotFound_Returns404() {
	transactionID := uuid.NewString()
	suite.mockSvc.On("GetTransactionByID", mock.Anything, transactionID).
		Return(nil, apperrors.ErrNotFound).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/transactions/"+transactionID, nil)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(suite.userID))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusNotFound, w.Code)
}

func TestTransactionHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TransactionHandlerTestSuite))
}
