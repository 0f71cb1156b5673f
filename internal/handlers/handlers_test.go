package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/strandhq/strand/backend/internal/database"
	"github.com/strandhq/strand/backend/internal/engagement"
	"github.com/strandhq/strand/backend/internal/feed"
	"github.com/strandhq/strand/backend/internal/logger"
	"github.com/strandhq/strand/backend/internal/middleware"
	"github.com/strandhq/strand/backend/internal/models"
	"github.com/strandhq/strand/backend/internal/threads"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testJWTSecret = "test-secret"

func TestMain(m *testing.M) {
	logger.InitializeForTests()
	gin.SetMode(gin.TestMode)
	m.Run()
}

// HandlersTestSuite exercises the HTTP surface end to end against an
// in-memory database: real services, real auth middleware, no mocks.
type HandlersTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine

	alice models.User
	bob   models.User
}

func (suite *HandlersTestSuite) SetupTest() {
	t := suite.T()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.MigrateOn(db))
	suite.db = db

	suite.alice = models.User{Username: "alice", DisplayName: "Alice"}
	require.NoError(t, db.Create(&suite.alice).Error)
	suite.bob = models.User{Username: "bob", DisplayName: "Bob"}
	require.NoError(t, db.Create(&suite.bob).Error)

	h := NewHandlers(
		threads.NewService(db),
		feed.NewEngine(db, 30, 100, 0.001),
		engagement.NewStore(db),
	)
	suite.router = newTestRouter(h)
}

// newTestRouter wires the same route table the server uses, minus rate
// limiting and observability middleware.
func newTestRouter(h *Handlers) *gin.Engine {
	secret := []byte(testJWTSecret)
	r := gin.New()

	api := r.Group("/api/v1")

	feedGroup := api.Group("/feed")
	feedGroup.GET("", middleware.OptionalAuth(secret), h.GetFeed)
	personal := feedGroup.Group("")
	personal.Use(middleware.Auth(secret))
	personal.GET("/recommendations", h.GetRecommendedFeed)
	personal.GET("/following", h.GetFollowingFeed)
	personal.GET("/likes", h.GetLikedFeed)
	personal.GET("/bookmarks", h.GetBookmarkedFeed)
	personal.GET("/reposts", h.GetRepostedFeed)

	threadGroup := api.Group("/threads")
	threadGroup.GET("/:id", middleware.OptionalAuth(secret), h.GetThread)
	authed := threadGroup.Group("")
	authed.Use(middleware.Auth(secret))
	authed.POST("", h.CreateThread)
	authed.PATCH("/:id", h.UpdateThread)
	authed.DELETE("/:id", h.DeleteThread)
	authed.POST("/:id/like", h.LikeThread)
	authed.POST("/:id/repost", h.RepostThread)
	authed.POST("/:id/bookmark", h.BookmarkThread)

	return r
}

func signToken(t require.TestingT, userID string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

// request performs an HTTP call against the suite router. userID == ""
// sends the request anonymously.
func (suite *HandlersTestSuite) request(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(suite.T(), json.NewEncoder(&buf).Encode(body))
	}

	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+signToken(suite.T(), userID))
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) createThread(userID, text string) string {
	w := suite.request("POST", "/api/v1/threads", userID, gin.H{"text": text})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	var response map[string]string
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &response))
	require.NotEmpty(suite.T(), response["id"])
	return response["id"]
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func (suite *HandlersTestSuite) TestCreateThread() {
	t := suite.T()

	w := suite.request("POST", "/api/v1/threads", suite.alice.ID, gin.H{
		"text":      "hello world",
		"hash_tags": []string{"go"},
		"mentions":  []string{"bob"},
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	w = suite.request("GET", "/api/v1/threads/"+response["id"], "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var item map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, "hello world", item["text"])

	user := item["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
	tags := item["tags"].([]interface{})
	require.Len(t, tags, 1)
	mentions := item["mentions"].([]interface{})
	require.Len(t, mentions, 1)
}

func (suite *HandlersTestSuite) TestCreateThreadRequiresAuth() {
	w := suite.request("POST", "/api/v1/threads", "", gin.H{"text": "anon"})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestCreateThreadValidation() {
	t := suite.T()

	// Missing text fails binding
	w := suite.request("POST", "/api/v1/threads", suite.alice.ID, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestGetUnknownThread() {
	w := suite.request("GET", "/api/v1/threads/"+models.NewID(), "", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestUpdateThread() {
	t := suite.T()
	id := suite.createThread(suite.alice.ID, "before")

	w := suite.request("PATCH", "/api/v1/threads/"+id, suite.alice.ID, gin.H{"text": "after"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = suite.request("GET", "/api/v1/threads/"+id, "", nil)
	var item map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, "after", item["text"])
}

func (suite *HandlersTestSuite) TestUpdateSomeoneElsesThread() {
	id := suite.createThread(suite.alice.ID, "mine")

	w := suite.request("PATCH", "/api/v1/threads/"+id, suite.bob.ID, gin.H{"text": "hijack"})
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestDeleteThread() {
	t := suite.T()
	id := suite.createThread(suite.alice.ID, "doomed")

	w := suite.request("DELETE", "/api/v1/threads/"+id, suite.alice.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Gone from reads, and a second delete is rejected
	w = suite.request("GET", "/api/v1/threads/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = suite.request("DELETE", "/api/v1/threads/"+id, suite.alice.ID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestLikeToggle() {
	t := suite.T()
	id := suite.createThread(suite.bob.ID, "likeable")

	w := suite.request("POST", "/api/v1/threads/"+id+"/like", suite.alice.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["liked"])
	assert.Equal(t, float64(1), response["likes"])

	w = suite.request("POST", "/api/v1/threads/"+id+"/like", suite.alice.ID, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, false, response["liked"])
	assert.Equal(t, float64(0), response["likes"])
}

func (suite *HandlersTestSuite) TestLikeUnknownThread() {
	w := suite.request("POST", "/api/v1/threads/"+models.NewID()+"/like", suite.alice.ID, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestRepostAndBookmarkToggles() {
	t := suite.T()
	id := suite.createThread(suite.bob.ID, "shareable")

	w := suite.request("POST", "/api/v1/threads/"+id+"/repost", suite.alice.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["reposted"])

	w = suite.request("POST", "/api/v1/threads/"+id+"/bookmark", suite.alice.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["saved"])
	assert.Equal(t, float64(1), response["bookmarks"])
}

func (suite *HandlersTestSuite) TestGlobalFeedAnonymous() {
	t := suite.T()
	suite.createThread(suite.alice.ID, "first")
	suite.createThread(suite.bob.ID, "second")

	w := suite.request("GET", "/api/v1/feed", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var page map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	list := page["list"].([]interface{})
	assert.Len(t, list, 2)
	assert.Equal(t, float64(2), page["total_count"])
	assert.Equal(t, false, page["has_next_page"])

	// No personalization fields for anonymous readers
	first := list[0].(map[string]interface{})
	_, present := first["liked"]
	assert.False(t, present)
}

func (suite *HandlersTestSuite) TestGlobalFeedPagination() {
	t := suite.T()
	for i := 0; i < 3; i++ {
		suite.createThread(suite.alice.ID, fmt.Sprintf("thread %d", i))
		time.Sleep(2 * time.Millisecond)
	}

	w := suite.request("GET", "/api/v1/feed?limit=2", "", nil)
	var page map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page["list"].([]interface{}), 2)
	assert.Equal(t, true, page["has_next_page"])
	cursor := page["end_cursor"].(string)

	w = suite.request("GET", "/api/v1/feed?limit=2&cursor="+cursor, "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page["list"].([]interface{}), 1)
	assert.Equal(t, false, page["has_next_page"])
}

func (suite *HandlersTestSuite) TestPersonalFeedsRequireAuth() {
	t := suite.T()
	for _, path := range []string{
		"/api/v1/feed/recommendations",
		"/api/v1/feed/following",
		"/api/v1/feed/likes",
		"/api/v1/feed/bookmarks",
		"/api/v1/feed/reposts",
	} {
		w := suite.request("GET", path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func (suite *HandlersTestSuite) TestBookmarksFeed() {
	t := suite.T()
	id := suite.createThread(suite.bob.ID, "saved")
	suite.createThread(suite.bob.ID, "not saved")
	suite.request("POST", "/api/v1/threads/"+id+"/bookmark", suite.alice.ID, nil)

	w := suite.request("GET", "/api/v1/feed/bookmarks", suite.alice.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var page map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	list := page["list"].([]interface{})
	require.Len(t, list, 1)
	item := list[0].(map[string]interface{})
	assert.Equal(t, id, item["id"])
	assert.Equal(t, true, item["bookmarked"])
}

func (suite *HandlersTestSuite) TestFollowingFeed() {
	t := suite.T()
	require.NoError(t, suite.db.Create(&models.Follow{
		FollowerID: suite.alice.ID,
		FolloweeID: suite.bob.ID,
	}).Error)

	carol := models.User{Username: "carol", DisplayName: "Carol"}
	require.NoError(t, suite.db.Create(&carol).Error)

	suite.createThread(suite.bob.ID, "followed")
	suite.createThread(carol.ID, "stranger")

	w := suite.request("GET", "/api/v1/feed/following", suite.alice.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var page map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	list := page["list"].([]interface{})
	require.Len(t, list, 1)
	item := list[0].(map[string]interface{})
	user := item["user"].(map[string]interface{})
	assert.Equal(t, "bob", user["username"])
}

func (suite *HandlersTestSuite) TestInvalidTokenRejected() {
	t := suite.T()

	req, _ := http.NewRequest("POST", "/api/v1/threads", bytes.NewBufferString(`{"text":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer not-a-token")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
