package service

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/meo-insight/internal/gbp"
	"github.com/lk2023060901/meo-insight/internal/meo/biz"
	"github.com/lk2023060901/meo-insight/internal/meo/types"
	apperrors "github.com/lk2023060901/meo-insight/internal/pkg/errors"
	"github.com/lk2023060901/meo-insight/internal/pkg/logger"
	"github.com/lk2023060901/meo-insight/internal/pkg/response"
	"go.uber.org/zap"
)

// SessionCookie carries the visitor's session id
const SessionCookie = "meo_session"

const (
	sessionKey          = "meo_session"
	inProgressNotice    = "前回の検索を実行中です。完了までしばらくお待ちください。"
	sessionCookieMaxAge = 24 * 60 * 60
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded HTML pages
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

// MEOService MEO 竞品分析 HTTP 服务
type MEOService struct {
	sessions    *biz.SessionStore
	translator  *biz.Translator
	probe       gbp.ClaimEstimator
	displayLang string
	logger      *logger.Logger
}

// NewMEOService 创建 MEO 服务；probe 用于对外提供 /check-claim
func NewMEOService(
	sessions *biz.SessionStore,
	translator *biz.Translator,
	probe gbp.ClaimEstimator,
	displayLang string,
	logger *logger.Logger,
) *MEOService {
	if displayLang == "" {
		displayLang = biz.DefaultTargetLanguage
	}
	return &MEOService{
		sessions:    sessions,
		translator:  translator,
		probe:       probe,
		displayLang: displayLang,
		logger:      logger,
	}
}

// RegisterRoutes 注册页面、API 与探测路由；limit 为空时不限流
func (s *MEOService) RegisterRoutes(r *gin.Engine, api *gin.RouterGroup, limit gin.HandlerFunc) {
	searchChain := []gin.HandlerFunc{s.withSession}
	if limit != nil {
		searchChain = append([]gin.HandlerFunc{limit}, searchChain...)
	}

	r.GET("/", s.withSession, s.Index)
	r.POST("/search", append(searchChain, s.SearchPage)...)
	r.POST("/check-claim", s.CheckClaim)

	api.POST("/search", append(searchChain, s.Search)...)
	api.GET("/search", s.withSession, s.GetSearch)
	api.POST("/translate", s.Translate)
}

// withSession resolves or creates the visitor session and tags the request context
func (s *MEOService) withSession(c *gin.Context) {
	id, _ := c.Cookie(SessionCookie)
	sess, created := s.sessions.GetOrCreate(id)
	if created {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, sess.ID(), sessionCookieMaxAge, "/", "", false, true)
	}

	c.Set(sessionKey, sess)
	c.Request = c.Request.WithContext(logger.WithSessionID(c.Request.Context(), sess.ID()))
	c.Next()
}

func sessionFrom(c *gin.Context) *biz.Session {
	return c.MustGet(sessionKey).(*biz.Session)
}

// Index 搜索页
func (s *MEOService) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", newPageData(sessionFrom(c).Snapshot()))
}

// SearchPage 表单提交：执行检索并渲染结果页
func (s *MEOService) SearchPage(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "index.html", pageData{Notice: err.Error()})
		return
	}

	snap, err := s.submit(c, req.Query)
	status := http.StatusOK
	data := newPageData(snap)
	if errors.Is(err, biz.ErrSearchInProgress) {
		status = http.StatusConflict
		data.Notice = inProgressNotice
	}
	c.HTML(status, "index.html", data)
}

// Search JSON 检索
func (s *MEOService) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.HandleError(c, apperrors.Wrap(err, apperrors.ErrInvalidParams))
		return
	}

	snap, err := s.submit(c, req.Query)
	switch {
	case errors.Is(err, biz.ErrSearchInProgress):
		response.ErrorWithData(c, apperrors.ErrSearchInProgress,
			apperrors.GetMessage(apperrors.ErrSearchInProgress), toSearchResponse(snap))
	case err != nil:
		response.ErrorWithData(c, apperrors.ErrSearchFailed, snap.Error, toSearchResponse(snap))
	default:
		response.Success(c, toSearchResponse(snap))
	}
}

// GetSearch 当前会话的检索快照
func (s *MEOService) GetSearch(c *gin.Context) {
	response.Success(c, toSearchResponse(sessionFrom(c).Snapshot()))
}

// submit runs the search detached from client cancellation so the session
// still settles when the browser goes away mid-search.
func (s *MEOService) submit(c *gin.Context, query string) (types.SessionSnapshot, error) {
	query = strings.TrimSpace(query)
	sess := sessionFrom(c)
	ctx := context.WithoutCancel(c.Request.Context())

	snap, err := sess.Submit(ctx, query)
	if err != nil && !errors.Is(err, biz.ErrSearchInProgress) {
		s.logger.WithContext(ctx).Error("search failed",
			zap.String("query", query),
			zap.Error(err))
	}
	return snap, err
}

// Translate 按需翻译
func (s *MEOService) Translate(c *gin.Context) {
	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		response.HandleError(c, apperrors.New(apperrors.ErrTranslateEmptyText))
		return
	}

	target := req.TargetLanguage
	if target == "" {
		target = s.displayLang
	}

	response.Success(c, &TranslateResponse{
		Translated:     s.translator.Translate(c.Request.Context(), req.Text, target),
		TargetLanguage: target,
	})
}

// CheckClaim 认领探测协议：{mapLink} -> {isClaimed}
func (s *MEOService) CheckClaim(c *gin.Context) {
	var req gbp.ProbeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mapLink is required"})
		return
	}

	claimed := s.probe.IsClaimed(c.Request.Context(), &req.MapLink)
	c.JSON(http.StatusOK, gbp.ProbeResponse{IsClaimed: claimed})
}
