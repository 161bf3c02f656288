package impl

import (
	"context"

	"passport/internal/domain/entity"
	"passport/internal/domain/service"
	"passport/internal/usecase"
)

// localVerifier adapts the central verify use case to the CodeVerifier
// interface. The central app redeems its own codes in process instead of
// calling itself over HTTP.
type localVerifier struct {
	verify usecase.VerifyUsecase
}

// NewLocalVerifier is the constructor for localVerifier.
func NewLocalVerifier(verify usecase.VerifyUsecase) service.CodeVerifier {
	return &localVerifier{verify: verify}
}

// Verify redeems the code against the local store.
func (v *localVerifier) Verify(ctx context.Context, app, code, signature string) (entity.Identity, error) {
	return v.verify.VerifyAuthCode(ctx, &usecase.VerifyCodeInput{
		App:       app,
		Code:      code,
		Signature: signature,
	})
}
