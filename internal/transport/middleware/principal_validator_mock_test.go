package middleware

import (
	"sync"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

var _ principalValidator = &principalValidatorMock{}

type principalValidatorMock struct {
	ValidateAccessTokenFunc func(token string) (domain.Principal, error)

	calls struct {
		ValidateAccessToken []struct {
			Token string
		}
	}
	lockValidateAccessToken sync.RWMutex
}

func (mock *principalValidatorMock) ValidateAccessToken(token string) (domain.Principal, error) {
	if mock.ValidateAccessTokenFunc == nil {
		panic("principalValidatorMock.ValidateAccessTokenFunc: method is nil but principalValidator.ValidateAccessToken was just called")
	}
	callInfo := struct {
		Token string
	}{Token: token}
	mock.lockValidateAccessToken.Lock()
	mock.calls.ValidateAccessToken = append(mock.calls.ValidateAccessToken, callInfo)
	mock.lockValidateAccessToken.Unlock()
	return mock.ValidateAccessTokenFunc(token)
}

func (mock *principalValidatorMock) ValidateAccessTokenCalls() []struct {
	Token string
} {
	mock.lockValidateAccessToken.RLock()
	calls := mock.calls.ValidateAccessToken
	mock.lockValidateAccessToken.RUnlock()
	return calls
}
