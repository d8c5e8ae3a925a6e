package reports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"

	"github.com/harborworks/receiving-go/internal/domain"
)

var ErrPlanNotDone = errors.New("plan is not done")

// ObjectPutter is the slice of the minio client the exporter needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Exporter struct {
	store  ObjectPutter
	bucket string
}

func NewExporter(store ObjectPutter, bucket string) (*Exporter, error) {
	if store == nil {
		return nil, errors.New("object store is required")
	}
	if bucket == "" {
		return nil, errors.New("bucket is required")
	}
	return &Exporter{store: store, bucket: bucket}, nil
}

// Export renders the receiving report for a finished plan and uploads
// it to the reports bucket, returning the object key.
func (e *Exporter) Export(ctx context.Context, plan domain.Plan) (string, error) {
	if plan.Status != domain.PlanStatusDone {
		return "", ErrPlanNotDone
	}

	body, err := Render(plan)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}

	key := ObjectKey(plan)
	opts := minio.PutObjectOptions{ContentType: "text/csv"}
	if _, err := e.store.PutObject(ctx, e.bucket, key, bytes.NewReader(body), int64(len(body)), opts); err != nil {
		return "", fmt.Errorf("upload report: %w", err)
	}
	return key, nil
}

func ObjectKey(plan domain.Plan) string {
	return fmt.Sprintf("plans/%s/receiving-report.csv", plan.Code)
}
