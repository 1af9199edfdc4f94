package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/athebyme/travel-admin/pkg/models"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
)

// KeycloakConfig конфигурация для Keycloak
type KeycloakConfig struct {
	ServerURL    string
	Realm        string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// KeycloakClaims представляет собой структуру claims из токена Keycloak
type KeycloakClaims struct {
	UserID      string `json:"sub"`
	Username    string `json:"preferred_username"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	RealmAccess struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
	ResourceAccess map[string]struct {
		Roles []string `json:"roles"`
	} `json:"resource_access"`
}

// KeycloakClient клиент для работы с Keycloak
type KeycloakClient struct {
	provider     *oidc.Provider
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
	tokenCache   *cache.Cache
	clientID     string
}

// NewKeycloakClient создает новый клиент Keycloak
func NewKeycloakClient(ctx context.Context, cfg KeycloakConfig) (*KeycloakClient, error) {
	providerURL := fmt.Sprintf("%s/realms/%s", cfg.ServerURL, cfg.Realm)

	provider, err := oidc.NewProvider(ctx, providerURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания OIDC провайдера: %w", err)
	}

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID: cfg.ClientID,
	})

	return &KeycloakClient{
		provider:     provider,
		verifier:     verifier,
		oauth2Config: oauth2Config,
		tokenCache:   cache.New(5*time.Minute, 10*time.Minute),
		clientID:     cfg.ClientID,
	}, nil
}

// ValidateToken проверяет токен и возвращает пользователя.
// Результат кэшируется до истечения срока действия токена.
func (k *KeycloakClient) ValidateToken(ctx context.Context, tokenString string) (*models.Principal, error) {
	if cached, found := k.tokenCache.Get(tokenString); found {
		return cached.(*models.Principal), nil
	}

	idToken, err := k.verifier.Verify(ctx, tokenString)
	if err != nil {
		return nil, fmt.Errorf("ошибка верификации токена: %w", err)
	}

	var claims KeycloakClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("ошибка извлечения claims: %w", err)
	}

	principal := &models.Principal{
		UserID:   claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     models.HighestRole(k.roles(&claims)),
	}

	if expiresIn := time.Until(idToken.Expiry); expiresIn > 0 {
		k.tokenCache.Set(tokenString, principal, expiresIn)
	}

	return principal, nil
}

// roles собирает роли realm и роли клиента
func (k *KeycloakClient) roles(claims *KeycloakClaims) []string {
	roles := append([]string(nil), claims.RealmAccess.Roles...)
	if clientRoles, exists := claims.ResourceAccess[k.clientID]; exists {
		roles = append(roles, clientRoles.Roles...)
	}
	return roles
}

// AuthCodeURL возвращает URL для входа через Keycloak
func (k *KeycloakClient) AuthCodeURL(state string) string {
	return k.oauth2Config.AuthCodeURL(state)
}
