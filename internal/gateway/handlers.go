package gateway

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/platefeed/stories/internal/domain"
	"github.com/platefeed/stories/internal/intake"
	"github.com/platefeed/stories/internal/overlay"
	apperrors "github.com/platefeed/stories/pkg/errors"
	"github.com/platefeed/stories/pkg/formatter"
)

type postPayload struct {
	domain.Post
	PostedAgo string `json:"postedAgo"`
	Views     string `json:"views"`
}

// MarshalJSON merges the presenter fields into the post's own encoding.
// The embedded Post promotes its MarshalJSON, which would otherwise drop
// postedAgo and views from the response.
func (p postPayload) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(p.Post)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}

	ago, err := json.Marshal(p.PostedAgo)
	if err != nil {
		return nil, err
	}
	views, err := json.Marshal(p.Views)
	if err != nil {
		return nil, err
	}
	fields["postedAgo"] = ago
	fields["views"] = views

	return json.Marshal(fields)
}

func (s *Server) presentPosts(posts []domain.Post) []postPayload {
	now := s.Clock.Now()
	out := make([]postPayload, 0, len(posts))
	for _, p := range posts {
		out = append(out, postPayload{
			Post:      p,
			PostedAgo: formatter.TimeAgo(p.CreatedAt, now),
			Views:     formatter.FormatNumber(p.ViewCount),
		})
	}
	return out
}

func (s *Server) handleFollowedAuthors(c echo.Context) error {
	user := currentUser(c)
	authorIDs, err := s.FollowRepo.ListFollowed(c.Request().Context(), user.ID)
	if err != nil {
		s.Logger.Error("Failed to list followed authors", "user_id", user.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load authors")
	}
	return c.JSON(http.StatusOK, map[string]any{"authorIds": authorIDs})
}

func (s *Server) handleStoriesForAuthor(c echo.Context) error {
	user := currentUser(c)
	authorID := c.Param("authorID")

	posts, err := s.Aggregator.LoadStoriesForUser(c.Request().Context(), user.ID, authorID)
	if err != nil {
		s.Logger.Error("Failed to load stories", "author_id", authorID, "code", apperrors.GetCode(err), "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load stories")
	}
	return c.JSON(http.StatusOK, map[string]any{"posts": s.presentPosts(posts)})
}

type createStatusRequest struct {
	Body             string `json:"body"`
	FromDrafts       bool   `json:"fromDrafts"`
	ExpiresInSeconds int    `json:"expiresInSeconds"`
}

func (s *Server) handleCreateStatus(c echo.Context) error {
	user := currentUser(c)
	ctx := c.Request().Context()

	var req createStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	body := strings.TrimSpace(req.Body)

	var contents []domain.Content
	sess := s.Registry.Acquire(user.ID)
	if req.FromDrafts {
		var (
			urls   []string
			kinds  []domain.MediaKind
			subErr error
		)
		err := sess.Call(ctx, func() {
			drafts := sess.Intake().Drafts()
			urls, subErr = sess.Intake().Submit(ctx)
			for _, d := range drafts {
				kinds = append(kinds, d.Kind)
			}
		})
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "session unavailable")
		}
		if subErr != nil {
			s.Logger.Error("Draft submit failed", "user_id", user.ID, "error", subErr)
			return echo.NewHTTPError(http.StatusInternalServerError, "could not upload media")
		}
		for i, url := range urls {
			if kinds[i] == domain.MediaVideo {
				contents = append(contents, domain.VideoContent{URL: url, Caption: body})
			} else {
				contents = append(contents, domain.ImageContent{URL: url, Caption: body})
			}
		}
	}
	if len(contents) == 0 && body != "" {
		// Text stands alone only when there is no media to caption.
		contents = append(contents, domain.TextContent{Body: body})
	}

	if len(contents) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "status needs text or media")
	}

	ttl := domain.StoryTTL
	if req.ExpiresInSeconds > 0 {
		ttl = time.Duration(req.ExpiresInSeconds) * time.Second
	}

	if err := s.PostRepo.UpsertAuthor(ctx, user); err != nil {
		s.Logger.Error("Failed to upsert author", "user_id", user.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create status")
	}

	now := s.Clock.Now()
	created := make([]domain.Post, 0, len(contents))
	for _, content := range contents {
		p := domain.Post{
			ID:        uuid.NewString(),
			Author:    user,
			Content:   content,
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		}
		if err := s.PostRepo.Create(ctx, p); err != nil {
			s.Logger.Error("Failed to create status post", "user_id", user.ID, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "could not create status")
		}
		created = append(created, p)
	}

	s.Cache.Invalidate(ctx, user.ID)

	if req.FromDrafts {
		// Publishing dismisses the composer through the regular close path.
		_ = sess.Call(ctx, func() {
			sess.Overlays().RequestClose(overlay.KeyComposer)
		})
	}

	return c.JSON(http.StatusCreated, map[string]any{"posts": s.presentPosts(created)})
}

func (s *Server) handleUploadMedia(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable file")
	}
	defer file.Close()

	url, err := s.MediaStore.Upload(c.Request().Context(), fileHeader.Filename, kindOf(fileHeader), file)
	if err != nil {
		s.Logger.Error("Media upload failed", "file", fileHeader.Filename, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not store media")
	}
	return c.JSON(http.StatusCreated, map[string]any{"url": url})
}

func (s *Server) handleToggleFollow(c echo.Context) error {
	user := currentUser(c)
	authorID := c.Param("authorID")

	following, err := s.FollowRepo.Toggle(c.Request().Context(), user.ID, authorID)
	if err != nil {
		s.Logger.Error("Failed to toggle follow", "user_id", user.ID, "author_id", authorID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not toggle follow")
	}
	return c.JSON(http.StatusOK, map[string]any{"following": following})
}

func (s *Server) handleAddDrafts(c echo.Context) error {
	user := currentUser(c)

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "expected multipart form")
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no files selected")
	}

	files := make([]intake.File, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable file")
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable file")
		}
		files = append(files, intake.File{Name: fh.Filename, Kind: kindOf(fh), Data: data})
	}

	sess := s.Registry.Acquire(user.ID)
	var drafts []domain.MediaDraft
	if err := sess.Call(c.Request().Context(), func() {
		drafts = sess.Intake().AddFiles(files)
	}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "session unavailable")
	}

	return c.JSON(http.StatusCreated, map[string]any{"drafts": drafts})
}

func (s *Server) handleRemoveDraft(c echo.Context) error {
	user := currentUser(c)
	draftID := c.Param("draftID")

	sess := s.Registry.Acquire(user.ID)
	if err := sess.Call(c.Request().Context(), func() {
		sess.Intake().Remove(draftID)
	}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "session unavailable")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleDraftPreview(c echo.Context) error {
	user := currentUser(c)
	draftID := c.Param("draftID")

	sess := s.Registry.Acquire(user.ID)
	var (
		data []byte
		ok   bool
	)
	if err := sess.Call(c.Request().Context(), func() {
		data, ok = sess.Intake().Preview(draftID)
	}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "session unavailable")
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "draft revoked or unknown")
	}
	return c.Blob(http.StatusOK, "application/octet-stream", data)
}

func (s *Server) handleOverlayState(c echo.Context) error {
	user := currentUser(c)
	sess := s.Registry.Acquire(user.ID)

	var anyOpen bool
	if err := sess.Call(c.Request().Context(), func() {
		anyOpen = sess.IsAnyOverlayOpen()
	}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "session unavailable")
	}
	return c.JSON(http.StatusOK, map[string]any{"anyOpen": anyOpen})
}

func kindOf(fh *multipart.FileHeader) domain.MediaKind {
	ct := fh.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "video/") {
		return domain.MediaVideo
	}
	return domain.MediaImage
}
