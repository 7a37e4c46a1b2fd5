package devserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"fitnest/client/internal/logging"
	"fitnest/client/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const ctxUserID = "userID"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Local development only: any origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler serves the backend API the client talks to.
type Handler struct {
	Store  *Store
	Hub    *Hub
	Tokens *Tokens
	logger *zap.Logger
}

func NewHandler(store *Store, hub *Hub, tokens *Tokens, logger *zap.Logger) *Handler {
	logger = logging.OrNop(logger)
	return &Handler{Store: store, Hub: hub, Tokens: tokens, logger: logger}
}

// Router wires every route onto a gin engine.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	r.POST("/auth/", h.Register)
	r.POST("/auth/token", h.Login)
	r.GET("/chat/ws/:userId/:token", h.ServeWebSocket)

	authed := r.Group("/", h.requireAuth())
	authed.GET("/auth/user/:id", h.PublicProfile)
	authed.GET("/chat/history/:partnerId", h.History)
	authed.GET("/chat/conversations", h.Conversations)
	authed.GET("/matches/my-matches", h.MyMatches)
	authed.GET("/matches", h.Matches)
	authed.GET("/listings/recommendations", h.Recommendations)
	return r
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}

func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			return
		}
		id, err := h.Tokens.Verify(authHeader[7:])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
			return
		}
		c.Set(ctxUserID, id)
		c.Next()
	}
}

func (h *Handler) currentAccount(c *gin.Context) (*models.Account, bool) {
	acc, err := h.Store.Account(c.Request.Context(), c.GetInt64(ctxUserID))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "User not found"})
		return nil, false
	}
	return acc, true
}

func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "username and password are required"})
		return
	}

	acc := &models.Account{Username: req.Username, Email: req.Email}
	err := h.Store.CreateAccount(c.Request.Context(), acc, req.Password)
	if errors.Is(err, ErrUsernameTaken) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Username already registered"})
		return
	}
	if err != nil {
		h.logger.Error("register failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "registration failed"})
		return
	}
	c.JSON(http.StatusCreated, publicProfile(acc))
}

// Login takes an OAuth2 password form, like the real backend.
func (h *Handler) Login(c *gin.Context) {
	acc, err := h.Store.Authenticate(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
	if errors.Is(err, ErrBadCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect username or password"})
		return
	}
	if err != nil {
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "login failed"})
		return
	}

	token, err := h.Tokens.Issue(acc.ID, acc.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to create token"})
		return
	}
	c.JSON(http.StatusOK, models.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      acc.ID,
		Username:    acc.Username,
	})
}

func (h *Handler) PublicProfile(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid user id"})
		return
	}
	acc, err := h.Store.Account(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}
	c.JSON(http.StatusOK, publicProfile(acc))
}

func (h *Handler) History(c *gin.Context) {
	partner, err := strconv.ParseInt(c.Param("partnerId"), 10, 64)
	if err != nil || partner <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid partner id"})
		return
	}
	rows, err := h.Store.History(c.Request.Context(), c.GetInt64(ctxUserID), partner)
	if err != nil {
		h.logger.Error("history query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "history unavailable"})
		return
	}
	out := make([]models.ChatMessage, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToMessage())
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Conversations(c *gin.Context) {
	list, err := h.Store.Conversations(c.Request.Context(), c.GetInt64(ctxUserID), h.Hub.Online)
	if err != nil {
		h.logger.Error("conversation query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "conversations unavailable"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) MyMatches(c *gin.Context) {
	self, ok := h.currentAccount(c)
	if !ok {
		return
	}
	others, err := h.Store.OtherAccounts(c.Request.Context(), self.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "matches unavailable"})
		return
	}
	c.JSON(http.StatusOK, rankCandidates(self, others))
}

func (h *Handler) Matches(c *gin.Context) {
	self, ok := h.currentAccount(c)
	if !ok {
		return
	}
	others, err := h.Store.OtherAccounts(c.Request.Context(), self.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "matches unavailable"})
		return
	}
	c.JSON(http.StatusOK, mutualMatches(rankCandidates(self, others)))
}

func (h *Handler) Recommendations(c *gin.Context) {
	self, ok := h.currentAccount(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	listings, err := h.Store.Listings(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "listings unavailable"})
		return
	}
	others, err := h.Store.OtherAccounts(ctx, self.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "listings unavailable"})
		return
	}
	hosts := make(map[int64]*models.Account, len(others))
	for i := range others {
		hosts[others[i].ID] = &others[i]
	}
	c.JSON(http.StatusOK, recommendListings(self, listings, hosts))
}

// ServeWebSocket authenticates through the path, since browsers cannot set
// headers on a socket handshake, then hands the connection to the hub.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "invalid user id"})
		return
	}
	tokenID, err := h.Tokens.Verify(c.Param("token"))
	if err != nil || tokenID != userID {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token or expired"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	newClient(userID, conn, h.Hub).Run()
}

func publicProfile(acc *models.Account) models.PublicProfile {
	return models.PublicProfile{
		ID:        acc.ID,
		Username:  acc.Username,
		FullName:  acc.FullName,
		AvatarURL: acc.AvatarURL,
	}
}
