package auth

import (
	"context"
	"crypto/rsa"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"passport/config"
	"passport/internal/domain/entity"
	"passport/internal/domain/service"
)

// signingAlgorithm is the only accepted JWT algorithm. Tokens presenting any
// other "alg" are rejected before signature verification.
const signingAlgorithm = "RS256"

// jwtService is a concrete implementation of the TokenService interface using
// asymmetric (RS256) signatures. The private signing key lives in the secret
// store and is fetched lazily on first Sign; the public key is plain
// configuration.
type jwtService struct {
	appID           string
	accessTTL       time.Duration
	privateKeyParam string
	secrets         service.SecretSource
	publicKey       *rsa.PublicKey

	// Lazily populated signing key. Races on first population are benign
	// (the fetched value is idempotent) but the mutex keeps only one fetch
	// in flight.
	keyMu      sync.Mutex
	privateKey *rsa.PrivateKey
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config, secrets service.SecretSource) (service.TokenService, error) {
	if cfg.Auth.JWTPrivateKeyParam == "" {
		return nil, errors.New("auth.jwtPrivateKeyParam must be provided")
	}
	if cfg.Auth.JWTPublicKey == "" {
		return nil, errors.New("auth.jwtPublicKey must be provided")
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.Auth.JWTPublicKey))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse jwt public key")
	}

	return &jwtService{
		appID:           cfg.Auth.AppID,
		accessTTL:       cfg.Auth.AccessTokenLifetime,
		privateKeyParam: cfg.Auth.JWTPrivateKeyParam,
		secrets:         secrets,
		publicKey:       publicKey,
	}, nil
}

// Sign mints an access token embedding the identity claims.
func (s *jwtService) Sign(ctx context.Context, identity entity.Identity) (string, error) {
	privateKey, err := s.signingKey(ctx)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := service.Claims{
		Data: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			Issuer:    s.appID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)

	signed, err := token.SignedString(privateKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign access token")
	}

	return signed, nil
}

// Verify validates signature, algorithm and issuer. Every authentication
// failure collapses into service.ErrInvalidToken.
func (s *jwtService) Verify(_ context.Context, tokenString string) (*service.Claims, error) {
	claims := new(service.Claims)

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(_ *jwt.Token) (any, error) { return s.publicKey, nil },
		jwt.WithValidMethods([]string{signingAlgorithm}),
		jwt.WithIssuer(s.appID),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, service.ErrInvalidToken
	}

	return claims, nil
}

// Decode validates signature, algorithm and issuer while tolerating an
// expired token. The issuer check runs manually because claims validation as
// a whole is skipped.
func (s *jwtService) Decode(_ context.Context, tokenString string) (*service.Claims, error) {
	claims := new(service.Claims)

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(_ *jwt.Token) (any, error) { return s.publicKey, nil },
		jwt.WithValidMethods([]string{signingAlgorithm}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !token.Valid {
		return nil, service.ErrInvalidToken
	}
	if claims.Issuer != s.appID {
		return nil, service.ErrInvalidToken
	}

	return claims, nil
}

// AccessTokenLifetime returns the configured access-token duration.
func (s *jwtService) AccessTokenLifetime() time.Duration {
	return s.accessTTL
}

// signingKey returns the memoized private key, fetching and parsing it from
// the secret store on first use.
func (s *jwtService) signingKey(ctx context.Context) (*rsa.PrivateKey, error) {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()

	if s.privateKey != nil {
		return s.privateKey, nil
	}

	pemKey, err := s.secrets.Get(ctx, s.privateKeyParam)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch jwt private key")
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse jwt private key")
	}
	s.privateKey = privateKey

	return privateKey, nil
}
