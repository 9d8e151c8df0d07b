package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"studyspace-api/config"
	"studyspace-api/models"
	"studyspace-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const casCallbackPath = "/auth/cas/callback"

type AuthHandler struct {
	db          *gorm.DB
	cache       *services.CacheService
	authService *services.AuthService
	cas         *services.CASClient
	cfg         *config.Config
}

func NewAuthHandler(db *gorm.DB, cache *services.CacheService, authService *services.AuthService, cas *services.CASClient, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, cache: cache, authService: authService, cas: cas, cfg: cfg}
}

// serviceURL reconstructs the callback URL CAS must bounce the ticket to.
// It has to match the service parameter of the original login redirect
// exactly or validation fails.
func serviceURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s%s", scheme, c.Request.Host, casCallbackPath)
}

// issueSession upserts the user row for netid, mints a JWT and drops it in
// the session cookie. The token is also returned for non-browser clients.
func (h *AuthHandler) issueSession(c *gin.Context, netid, role string) (string, error) {
	now := time.Now().UTC()

	var user models.User
	err := h.db.Where("netid = ?", netid).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{NetID: netid, AnonymizeCheckins: true, CreatedAt: now, LastActiveAt: now}
		if err := h.db.Create(&user).Error; err != nil {
			return "", err
		}
	case err != nil:
		return "", err
	default:
		if err := h.db.Model(&user).Update("last_active_at", now).Error; err != nil {
			return "", err
		}
	}

	token, err := h.authService.GenerateToken(user.ID, netid, role)
	if err != nil {
		return "", err
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(services.SessionCookieName, token, h.cfg.JWT.ExpiryHours*3600, "/", "", false, true)
	return token, nil
}

// CASLogin sends the browser to the campus CAS server.
func (h *AuthHandler) CASLogin(c *gin.Context) {
	c.Redirect(http.StatusFound, h.cas.LoginURL(serviceURL(c)))
}

// CASCallback redeems the single-use ticket CAS appended to the callback
// URL. On success the browser lands back on the frontend with a session
// cookie set; failures redirect with an error code the frontend can show.
func (h *AuthHandler) CASCallback(c *gin.Context) {
	ticket := c.Query("ticket")
	if ticket == "" {
		c.Redirect(http.StatusFound, h.cfg.CAS.AppBase+"/login?error=cas_failed")
		return
	}

	netid, err := h.cas.Validate(c.Request.Context(), ticket, serviceURL(c))
	if err != nil {
		log.Printf("CAS ticket validation failed: %v", err)
		code := "cas_failed"
		if errors.Is(err, services.ErrCASUnavailable) {
			code = "cas_http"
		}
		c.Redirect(http.StatusFound, h.cfg.CAS.AppBase+"/login?error="+code)
		return
	}

	if _, err := h.issueSession(c, netid, services.RoleUser); err != nil {
		log.Printf("failed to create session for %s: %v", netid, err)
		c.Redirect(http.StatusFound, h.cfg.CAS.AppBase+"/login?error=session")
		return
	}

	c.Redirect(http.StatusFound, h.cfg.CAS.AppBase+"/")
}

// DevLogin issues a session without touching CAS. Unless DEV_AUTH is on
// it answers 404 like an unknown route.
func (h *AuthHandler) DevLogin(c *gin.Context) {
	if !h.cfg.CAS.DevAuth {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	netid := c.DefaultQuery("netid", "dev001")
	token, err := h.issueSession(c, netid, services.RoleUser)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "netid": netid})
}

type AdminLoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// AdminLogin trades the shared admin password for an admin-role session.
// Disabled (404) unless ADMIN_PASSWORD_HASH is configured.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	if h.cfg.Admin.PasswordHash == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.authService.CheckPassword(h.cfg.Admin.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.issueSession(c, "admin", services.RoleAdmin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Me reports who the current session belongs to.
func (h *AuthHandler) Me(c *gin.Context) {
	netid := c.GetString("netid")

	var user models.User
	if err := h.db.Where("netid = ?", netid).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"netid":        user.NetID,
		"display_name": user.DisplayName,
		"role":         c.GetString("role"),
	})
}

// Logout denylists the session's JTI for its remaining lifetime and clears
// the cookie. With Redis down the cookie still dies, the token just stays
// technically valid until expiry.
func (h *AuthHandler) Logout(c *gin.Context) {
	if v, ok := c.Get("claims"); ok {
		if claims, ok := v.(*services.Claims); ok && claims.ExpiresAt != nil {
			if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
				if err := h.cache.RevokeSession(c.Request.Context(), claims.ID, ttl); err != nil {
					log.Printf("failed to revoke session %s: %v", claims.ID, err)
				}
			}
		}
	}

	c.SetCookie(services.SessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
