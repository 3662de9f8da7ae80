package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"

	"pattern-studio/core"
)

// s3API is the part of *s3.Client the store uses.
type s3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type s3Store struct {
	s3Client s3API
	bucket   string
}

// NewStore creates an S3-backed store using the default AWS credential chain.
func NewStore(ctx context.Context, bucketName string) (*s3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS SDK config: %w", err)
	}
	return newStoreWithClient(s3.NewFromConfig(cfg), bucketName), nil
}

func newStoreWithClient(client s3API, bucketName string) *s3Store {
	return &s3Store{s3Client: client, bucket: bucketName}
}

// Object layout: {userID}/{draftID}.json
func (s *s3Store) draftKey(userID, draftID string) (string, error) {
	if err := core.ValidateKey(userID); err != nil {
		return "", err
	}
	if err := core.ValidateKey(draftID); err != nil {
		return "", err
	}
	return path.Join(userID, draftID+".json"), nil
}

// objectDraft is the stored form; Draft hides UserID from JSON.
type objectDraft struct {
	*core.Draft
	UserID string `json:"userId"`
}

func (s *s3Store) List(ctx context.Context, userID string) ([]*core.Draft, error) {
	if err := core.ValidateKey(userID); err != nil {
		return nil, err
	}
	log := logrus.WithField("user_id", userID)

	drafts := []*core.Draft{}
	paginator := s3.NewListObjectsV2Paginator(s.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(userID + "/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing drafts for user %s: %w", userID, err)
		}
		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if !strings.HasSuffix(key, ".json") {
				continue
			}
			draft, err := s.getObject(ctx, key)
			if err != nil {
				log.WithError(err).Warnf("Failed to read draft object %s, skipping", key)
				continue
			}
			// List view does not carry the canvas.
			draft.Data = nil
			drafts = append(drafts, draft)
		}
	}
	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].UpdatedAt.After(drafts[j].UpdatedAt)
	})

	log.Infof("Listed %d drafts", len(drafts))
	return drafts, nil
}

func (s *s3Store) Get(ctx context.Context, userID, id string) (*core.Draft, error) {
	key, err := s.draftKey(userID, id)
	if err != nil {
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "draft_id": id})

	draft, err := s.getObject(ctx, key)
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			log.Warn("Draft not found for user")
			return nil, core.ErrDraftNotFound
		}
		log.WithError(err).Error("Failed to get draft")
		return nil, err
	}

	log.Info("Draft retrieved successfully")
	return draft, nil
}

func (s *s3Store) Save(ctx context.Context, draft *core.Draft) error {
	key, err := s.draftKey(draft.UserID, draft.ID)
	if err != nil {
		return err
	}

	now := time.Now()
	if existing, err := s.getObject(ctx, key); err == nil {
		draft.CreatedAt = existing.CreatedAt
	} else {
		draft.CreatedAt = now
	}
	draft.UpdatedAt = now

	data, err := json.Marshal(objectDraft{Draft: draft, UserID: draft.UserID})
	if err != nil {
		return fmt.Errorf("marshalling draft: %w", err)
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("saving draft %s: %w", draft.ID, err)
	}

	logrus.WithFields(logrus.Fields{"user_id": draft.UserID, "draft_id": draft.ID}).Info("Draft saved successfully")
	return nil
}

func (s *s3Store) Delete(ctx context.Context, userID, id string) error {
	key, err := s.draftKey(userID, id)
	if err != nil {
		return err
	}
	// S3 deletes are idempotent, so check existence to report a missing draft.
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}

	_, err = s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting draft %s: %w", id, err)
	}

	logrus.WithFields(logrus.Fields{"user_id": userID, "draft_id": id}).Info("Draft deleted successfully")
	return nil
}

func (s *s3Store) getObject(ctx context.Context, key string) (*core.Draft, error) {
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading draft data: %w", err)
	}

	od := objectDraft{Draft: &core.Draft{}}
	if err := json.Unmarshal(data, &od); err != nil {
		return nil, fmt.Errorf("unmarshalling draft: %w", err)
	}
	od.Draft.UserID = od.UserID
	return od.Draft, nil
}
