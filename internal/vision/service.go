// Package vision recognizes a dish from an uploaded photo. The image bytes
// are stored in object storage for the meal record and analyzed through the
// vision completion endpoint. Analysis never hard-fails: any storage or
// completion failure degrades to a generic fallback result.
package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/meshilogapp/meshilog-backend/pkg/completion"
	"github.com/meshilogapp/meshilog-backend/pkg/config"
	"github.com/meshilogapp/meshilog-backend/pkg/enums"
	pkgerrors "github.com/meshilogapp/meshilog-backend/pkg/errors"
	"github.com/meshilogapp/meshilog-backend/pkg/logger"
)

const visionSystemPrompt = "あなたは料理写真の分析アシスタントです。写真に写っている料理を特定し、" +
	`{"dishName": "料理名", "category": "japanese|western|chinese|other", "confidence": 0から1の数値} の形式で返してください。`

var contentTypeExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

type completionCaller interface {
	Complete(ctx context.Context, req completion.Request) (string, error)
}

type uploader interface {
	Upload(ctx context.Context, object, contentType string, data []byte) (string, error)
}

// Analysis is the recognition result for one photo.
type Analysis struct {
	DishName   string  `json:"dishName"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	ImageURL   string  `json:"imageUrl,omitempty"`
}

// FallbackAnalysis is the generic result served when recognition fails.
func FallbackAnalysis() Analysis {
	return Analysis{DishName: "料理", Category: enums.MealCategoryOther.String(), Confidence: 0}
}

// Service exposes photo dish recognition.
type Service interface {
	AnalyzeImage(ctx context.Context, userID int64, data []byte, contentType string) (*Analysis, error)
}

// ServiceParams holds the dependencies for NewService.
type ServiceParams struct {
	Completion completionCaller
	Storage    uploader
	Media      config.MediaConfig
	Logger     *logger.Logger
}

type service struct {
	completion completionCaller
	storage    uploader
	maxBytes   int
	logg       *logger.Logger
}

// NewService builds the vision service.
func NewService(params ServiceParams) (Service, error) {
	if params.Completion == nil {
		return nil, errors.New("vision: completion caller is required")
	}
	if params.Logger == nil {
		return nil, errors.New("vision: logger is required")
	}
	maxMB := params.Media.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 10
	}
	return &service{
		completion: params.Completion,
		storage:    params.Storage,
		maxBytes:   maxMB << 20,
		logg:       params.Logger,
	}, nil
}

// AnalyzeImage stores the photo and asks the vision model what dish it
// shows. Input problems are the caller's fault and return validation
// errors; everything downstream is absorbed into the fallback result.
func (s *service) AnalyzeImage(ctx context.Context, userID int64, data []byte, contentType string) (*Analysis, error) {
	ext, ok := contentTypeExtensions[contentType]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image must be jpeg, png or webp")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image data is required")
	}
	if len(data) > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image exceeds the upload size limit")
	}

	imageURL := s.uploadImage(ctx, userID, ext, contentType, data)

	dataURI := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
	result, err := s.recognize(ctx, dataURI)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "serving fallback image analysis")
		fallback := FallbackAnalysis()
		fallback.ImageURL = imageURL
		return &fallback, nil
	}
	result.ImageURL = imageURL
	return result, nil
}

// uploadImage stores the photo bytes; a storage failure costs the durable
// URL but never the analysis.
func (s *service) uploadImage(ctx context.Context, userID int64, ext, contentType string, data []byte) string {
	if s.storage == nil {
		return ""
	}
	object := fmt.Sprintf("meals/%d/%s.%s", userID, uuid.NewString(), ext)
	imageURL, err := s.storage.Upload(ctx, object, contentType, data)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "meal photo upload failed")
		return ""
	}
	return imageURL
}

func (s *service) recognize(ctx context.Context, imageRef string) (*Analysis, error) {
	content, err := s.completion.Complete(ctx, completion.Request{
		Op: "image_analysis",
		Messages: []completion.Message{
			completion.TextMessage("system", visionSystemPrompt),
			completion.VisionMessage("user", "この写真の料理を分析してください。", imageRef),
		},
		JSONObject: true,
		Vision:     true,
	})
	if err != nil {
		return nil, err
	}
	return parseAnalysis(content)
}

func parseAnalysis(content string) (*Analysis, error) {
	var decoded Analysis
	if err := json.Unmarshal([]byte(completion.StripFences(content)), &decoded); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse image analysis response")
	}
	if decoded.DishName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "image analysis response is missing a dish name")
	}
	if _, err := enums.ParseMealCategory(decoded.Category); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "image analysis response has an unknown category")
	}
	if decoded.Confidence < 0 {
		decoded.Confidence = 0
	}
	if decoded.Confidence > 1 {
		decoded.Confidence = 1
	}
	return &decoded, nil
}
