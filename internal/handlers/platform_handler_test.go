package handlers

import (
	"net/http"
	"testing"

	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/internal/services"
	"github.com/getmentor/getmentor-escrow/pkg/amount"
	apperrors "github.com/getmentor/getmentor-escrow/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func platformRouter(caller models.Address, svc *MockPlatformService) http.Handler {
	h := NewPlatformHandler(svc)
	router := newRouter(caller)
	router.GET("/platform", h.GetPlatformConfig)
	router.PUT("/platform/fee", h.UpdatePlatformFee)
	router.PUT("/platform/nft-contract", h.SetNFTContract)
	router.POST("/platform/emergency-withdrawal", h.WithdrawEmergency)
	return router
}

func testPlatformConfig(fee uint64) *models.PlatformConfig {
	return &models.PlatformConfig{
		Owner:         ownerAddr,
		PlatformFee:   fee,
		LedgerAddress: ledgerAddr,
		NFTContract:   registryAddr,
	}
}

func TestGetPlatformConfig(t *testing.T) {
	svc := new(MockPlatformService)
	svc.On("GetPlatformConfig", mock.Anything).Return(&models.PlatformStatus{
		PlatformConfig: testPlatformConfig(5),
		CustodyBalance: amount.New(100),
	}, nil)

	w := doRequest(platformRouter("", svc), http.MethodGet, "/platform", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"platformFee":5`)
	assert.Contains(t, w.Body.String(), `"custodyBalance":"100"`)
	assert.Contains(t, w.Body.String(), `"platformWallet":"`+ownerAddr.String()+`"`)
}

func TestGetPlatformConfig_NotInitialized(t *testing.T) {
	svc := new(MockPlatformService)
	svc.On("GetPlatformConfig", mock.Anything).Return(nil, services.ErrLedgerNotInitialized)

	w := doRequest(platformRouter("", svc), http.MethodGet, "/platform", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUpdatePlatformFee(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		fee        uint64
		err        error
		wantStatus int
	}{
		{"zero fee", `{"platformFee":0}`, 0, nil, http.StatusOK},
		{"at cap", `{"platformFee":20}`, 20, nil, http.StatusOK},
		{"above cap", `{"platformFee":21}`, 21, apperrors.ErrFeeExceedsCap, http.StatusBadRequest},
		{"not owner", `{"platformFee":3}`, 3, apperrors.ErrLedgerUnauthorized, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockPlatformService)
			if tt.err != nil {
				svc.On("UpdatePlatformFee", mock.Anything, ownerAddr, tt.fee).Return(nil, tt.err)
			} else {
				svc.On("UpdatePlatformFee", mock.Anything, ownerAddr, tt.fee).Return(testPlatformConfig(tt.fee), nil)
			}

			w := doRequest(platformRouter(ownerAddr, svc), http.MethodPut, "/platform/fee", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestUpdatePlatformFee_MissingFee(t *testing.T) {
	svc := new(MockPlatformService)

	w := doRequest(platformRouter(ownerAddr, svc), http.MethodPut, "/platform/fee", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "UpdatePlatformFee", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetNFTContract(t *testing.T) {
	svc := new(MockPlatformService)
	svc.On("SetNFTContract", mock.Anything, ownerAddr, registryAddr).Return(testPlatformConfig(5), nil)

	w := doRequest(platformRouter(ownerAddr, svc), http.MethodPut, "/platform/nft-contract", `{"address":"`+registryAddr.String()+`"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"nftContract":"`+registryAddr.String()+`"`)
}

func TestWithdrawEmergency(t *testing.T) {
	svc := new(MockPlatformService)
	svc.On("WithdrawEmergency", mock.Anything, ownerAddr).Return(&models.EmergencyWithdrawalResponse{
		Recipient: ownerAddr,
		Amount:    amount.New(250),
	}, nil)
	svc.On("WithdrawEmergency", mock.Anything, studentAddr).Return(nil, apperrors.ErrLedgerUnauthorized)

	w := doRequest(platformRouter(ownerAddr, svc), http.MethodPost, "/platform/emergency-withdrawal", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"recipient":"`+ownerAddr.String()+`","amount":"250"}`, w.Body.String())

	w = doRequest(platformRouter(studentAddr, svc), http.MethodPost, "/platform/emergency-withdrawal", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"Unauthorized"`)
}
