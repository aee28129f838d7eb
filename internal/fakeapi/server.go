// Package fakeapi is an in-memory double of the kindness REST backend,
// implementing the interface the client consumes. Package tests run the
// client against it; cmd/mockapi serves it standalone for local work.
package fakeapi

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/kindacts/kindcli/internal/models"
)

const authHeader = "auth-token"

type userRecord struct {
	user         models.User
	passwordHash string
}

type Server struct {
	Secret   []byte
	TokenTTL time.Duration

	mu        sync.Mutex
	users     map[string]userRecord // keyed by email
	acts      map[string]models.KindnessAct
	saved     map[string]models.SavedAct
	completed map[string][]models.CompletedAct // keyed by user id

	requests atomic.Int64
}

func NewServer() *Server {
	return &Server{
		Secret:    []byte("fakeapi-secret"),
		TokenTTL:  time.Hour,
		users:     make(map[string]userRecord),
		acts:      make(map[string]models.KindnessAct),
		saved:     make(map[string]models.SavedAct),
		completed: make(map[string][]models.CompletedAct),
	}
}

// RequestCount reports how many requests the server has seen, so tests can
// assert that an operation never touched the network.
func (s *Server) RequestCount() int64 { return s.requests.Load() }

func (s *Server) Register(e *echo.Echo) {
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s.requests.Add(1)
			return next(c)
		}
	})

	e.POST("/api/user/register", s.registerUser)
	e.POST("/api/user/login", s.login)
	e.GET("/api/acts", s.listActs)

	private := e.Group("", s.requireAuth)
	private.GET("/api/acts/user", s.listOwnActs)
	private.GET("/api/acts/all", s.listAllActs)
	private.POST("/api/acts", s.createAct)
	private.PUT("/api/acts/:id", s.updateAct)
	private.DELETE("/api/acts/:id", s.deleteAct)
	private.GET("/api/saved", s.listSaved)
	private.POST("/api/saved", s.saveAct)
	private.DELETE("/api/saved/:id", s.unsaveAct)
	private.PUT("/api/saved/:id/complete", s.completeAct)
	private.GET("/api/completed/:userId", s.listCompleted)
}

func apiError(c echo.Context, code int, msg string) error {
	return c.JSON(code, echo.Map{"error": msg})
}

type tokenClaims struct {
	UserID   string      `json:"userId"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// CreateToken mints a signed token with the payload the real backend uses.
func (s *Server) CreateToken(user models.User, exp time.Time) (string, error) {
	claims := tokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.Request().Header.Get(authHeader)
		if raw == "" {
			return apiError(c, http.StatusUnauthorized, "Unauthorized")
		}
		var claims tokenClaims
		tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
			return s.Secret, nil
		})
		if err != nil || !tkn.Valid {
			return apiError(c, http.StatusUnauthorized, "Unauthorized")
		}
		c.Set("user", models.User{
			ID:       claims.UserID,
			Username: claims.Username,
			Email:    claims.Email,
			Role:     claims.Role,
		})
		return next(c)
	}
}

func currentUser(c echo.Context) models.User {
	u, _ := c.Get("user").(models.User)
	return u
}

// SeedUser registers an account directly, bypassing the HTTP surface.
func (s *Server) SeedUser(username, email, password string, role models.Role) models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := models.User{ID: uuid.NewString(), Username: username, Email: email, Role: role}
	s.mu.Lock()
	s.users[email] = userRecord{user: user, passwordHash: string(hash)}
	s.mu.Unlock()
	return user
}

// SeedAct inserts an act directly.
func (s *Server) SeedAct(title string, status models.ActStatus, createdBy models.User) models.KindnessAct {
	now := time.Now().UTC()
	act := models.KindnessAct{
		ID:          uuid.NewString(),
		Title:       title,
		Description: "seeded act",
		Difficulty:  models.DifficultyEasy,
		CreatedBy:   createdBy,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.mu.Lock()
	s.acts[act.ID] = act
	s.mu.Unlock()
	return act
}

func (s *Server) registerUser(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return apiError(c, http.StatusBadRequest, "invalid body")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return apiError(c, http.StatusBadRequest, "username, email and password are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Email]; exists {
		return apiError(c, http.StatusConflict, "user already exists")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		return apiError(c, http.StatusInternalServerError, "internal error")
	}
	user := models.User{ID: uuid.NewString(), Username: req.Username, Email: req.Email, Role: models.RoleUser}
	s.users[req.Email] = userRecord{user: user, passwordHash: string(hash)}
	return c.JSON(http.StatusCreated, user)
}

func (s *Server) login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return apiError(c, http.StatusBadRequest, "invalid body")
	}

	s.mu.Lock()
	rec, ok := s.users[req.Email]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword([]byte(rec.passwordHash), []byte(req.Password)) != nil {
		return apiError(c, http.StatusUnauthorized, "invalid email or password")
	}

	token, err := s.CreateToken(rec.user, time.Now().Add(s.TokenTTL))
	if err != nil {
		return apiError(c, http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token, "user": rec.user})
}

func (s *Server) listActs(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.KindnessAct, 0, len(s.acts))
	for _, act := range s.acts {
		if act.Status != models.StatusRejected {
			out = append(out, act)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) listOwnActs(c echo.Context) error {
	user := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.KindnessAct, 0)
	for _, act := range s.acts {
		if act.CreatedBy.ID == user.ID {
			out = append(out, act)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) listAllActs(c echo.Context) error {
	if !currentUser(c).Role.IsAdmin() {
		return apiError(c, http.StatusForbidden, "admin only")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.KindnessAct, 0, len(s.acts))
	for _, act := range s.acts {
		out = append(out, act)
	}
	return c.JSON(http.StatusOK, out)
}

type actRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Difficulty  models.Difficulty `json:"difficulty"`
	Status      models.ActStatus  `json:"status"`
}

func (s *Server) createAct(c echo.Context) error {
	var req actRequest
	if err := c.Bind(&req); err != nil {
		return apiError(c, http.StatusBadRequest, "invalid body")
	}
	if req.Title == "" {
		return apiError(c, http.StatusBadRequest, "title is required")
	}
	if req.Status == "" {
		req.Status = models.StatusPending
	}
	now := time.Now().UTC()
	act := models.KindnessAct{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Difficulty:  req.Difficulty,
		CreatedBy:   currentUser(c),
		Status:      req.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.mu.Lock()
	s.acts[act.ID] = act
	s.mu.Unlock()
	return c.JSON(http.StatusCreated, act)
}

func (s *Server) updateAct(c echo.Context) error {
	var req actRequest
	if err := c.Bind(&req); err != nil {
		return apiError(c, http.StatusBadRequest, "invalid body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	act, ok := s.acts[c.Param("id")]
	if !ok {
		return apiError(c, http.StatusNotFound, "act not found")
	}
	if req.Title != "" {
		act.Title = req.Title
	}
	if req.Description != "" {
		act.Description = req.Description
	}
	if req.Category != "" {
		act.Category = req.Category
	}
	if req.Difficulty != "" {
		act.Difficulty = req.Difficulty
	}
	if req.Status != "" {
		act.Status = req.Status
	}
	act.UpdatedAt = time.Now().UTC()
	s.acts[act.ID] = act
	return c.JSON(http.StatusOK, act)
}

func (s *Server) deleteAct(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.acts[c.Param("id")]; !ok {
		return apiError(c, http.StatusNotFound, "act not found")
	}
	delete(s.acts, c.Param("id"))
	// The real backend answers 204 here; the client has to cope.
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listSaved(c echo.Context) error {
	user := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SavedAct, 0)
	for _, rec := range s.saved {
		if rec.User == user.ID {
			out = append(out, rec)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) saveAct(c echo.Context) error {
	var req struct {
		ActID string `json:"actId"`
	}
	if err := c.Bind(&req); err != nil {
		return apiError(c, http.StatusBadRequest, "invalid body")
	}
	user := currentUser(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	act, ok := s.acts[req.ActID]
	if !ok {
		return apiError(c, http.StatusNotFound, "act not found")
	}
	rec := models.SavedAct{
		ID:      uuid.NewString(),
		User:    user.ID,
		Act:     act,
		SavedAt: time.Now().UTC(),
	}
	s.saved[rec.ID] = rec
	return c.JSON(http.StatusCreated, rec)
}

func (s *Server) unsaveAct(c echo.Context) error {
	user := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.saved[c.Param("id")]
	if !ok || rec.User != user.ID {
		return apiError(c, http.StatusNotFound, "saved act not found")
	}
	delete(s.saved, rec.ID)
	return c.JSON(http.StatusOK, echo.Map{"message": "act removed from saved"})
}

func (s *Server) completeAct(c echo.Context) error {
	user := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.saved[c.Param("id")]
	if !ok || rec.User != user.ID {
		return apiError(c, http.StatusNotFound, "saved act not found")
	}
	delete(s.saved, rec.ID)
	completed := models.CompletedAct{
		ID:   uuid.NewString(),
		User: user.ID,
		Act: models.ActRef{
			ID:          rec.Act.ID,
			Title:       rec.Act.Title,
			Description: rec.Act.Description,
		},
		CompletedAt: time.Now().UTC(),
	}
	s.completed[user.ID] = append([]models.CompletedAct{completed}, s.completed[user.ID]...)
	return c.JSON(http.StatusOK, echo.Map{
		"message":      "act marked as completed",
		"completedAct": completed,
	})
}

func (s *Server) listCompleted(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.completed[c.Param("userId")]
	if out == nil {
		out = []models.CompletedAct{}
	}
	return c.JSON(http.StatusOK, out)
}
