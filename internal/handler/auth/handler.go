package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rpmweb/rpm-api/internal/middleware"
	"github.com/rpmweb/rpm-api/internal/model"
	"github.com/rpmweb/rpm-api/pkg/errors"
	"github.com/rpmweb/rpm-api/pkg/httputil"
)

type Service interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, token string) (*model.User, error)
	Nonce(walletAddress string) (string, error)
	VerifyWallet(ctx context.Context, req *model.WalletVerifyRequest) (*model.AuthResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateRole(ctx context.Context, userID uuid.UUID, role model.Role) (*model.User, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// PublicRoutes lists the routes that do not need a token.
func PublicRoutes(prefix string) []string {
	return []string{
		http.MethodPost + " " + prefix + "/auth/register",
		http.MethodPost + " " + prefix + "/auth/login",
		http.MethodPost + " " + prefix + "/auth/web3/nonce",
		http.MethodPost + " " + prefix + "/auth/web3/verify",
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/web3/nonce", h.Nonce)
		auth.POST("/web3/verify", h.VerifyWallet)
		auth.GET("/me", h.Me)
		auth.GET("/me/role", h.MyRole)
		auth.PATCH("/me/role", h.UpdateMyRole)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	user, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, user)
}

type loginRequest struct {
	Token string `json:"token"`
}

// Login accepts the provider token as a bearer header or in the body.
func (h *Handler) Login(c *gin.Context) {
	token := ""
	if scheme, value, ok := strings.Cut(c.GetHeader("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
		token = strings.TrimSpace(value)
	}
	if token == "" {
		var req loginRequest
		if c.Request.ContentLength != 0 {
			if !httputil.BindJSON(c, &req) {
				return
			}
		}
		token = req.Token
	}
	if token == "" {
		httputil.RespondWithError(c, errors.Unauthorized("Missing identity token"))
		return
	}

	user, err := h.svc.Login(c.Request.Context(), token)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, user)
}

func (h *Handler) Nonce(c *gin.Context) {
	var req model.WalletNonceRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	nonce, err := h.svc.Nonce(req.WalletAddress)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"nonce": nonce})
}

func (h *Handler) VerifyWallet(c *gin.Context) {
	var req model.WalletVerifyRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	resp, err := h.svc.VerifyWallet(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, resp)
}

func (h *Handler) Me(c *gin.Context) {
	caller := middleware.CurrentUser(c)

	user, err := h.svc.GetUserByID(c.Request.Context(), caller.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, user)
}

func (h *Handler) MyRole(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"role": caller.Role.ClientRole()})
}

func (h *Handler) UpdateMyRole(c *gin.Context) {
	var req model.UpdateRoleRequest
	if !httputil.BindJSON(c, &req) {
		return
	}

	user, err := h.svc.UpdateRole(c.Request.Context(), middleware.CurrentUser(c).ID, req.Role)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, user)
}
