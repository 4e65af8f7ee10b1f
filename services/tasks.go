package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"penaltybox-backend/models"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const taskTypeImageProcessing = "image_processing"

// ThumbnailJob asks the pipeline to turn one uploaded proof image into a
// thumbnail.
type ThumbnailJob struct {
	ProofID      uuid.UUID
	OriginalPath string
}

// TaskRunner is the background image pipeline: a fixed worker pool
// draining a buffered job channel. Each job is audited as a
// background_tasks row; failures are recorded there and never propagate
// to the submitting request.
type TaskRunner struct {
	db      *gorm.DB
	storage Storage
	width   int
	height  int

	jobs chan ThumbnailJob
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewTaskRunner(db *gorm.DB, storage Storage, width, height, queueSize int) *TaskRunner {
	if width <= 0 {
		width = 100
	}
	if height <= 0 {
		height = 100
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &TaskRunner{
		db:      db,
		storage: storage,
		width:   width,
		height:  height,
		jobs:    make(chan ThumbnailJob, queueSize),
	}
}

// Start launches the worker pool. Stop drains it.
func (r *TaskRunner) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for job := range r.jobs {
				r.process(job)
			}
		}()
	}
	log.Printf("✅ Task runner started with %d workers", workers)
}

func (r *TaskRunner) Stop() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.jobs)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// Enqueue never blocks: a full queue or a stopped runner is reported to
// the caller, who logs and moves on. The proof stays valid on its
// original path.
func (r *TaskRunner) Enqueue(job ThumbnailJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.New("task runner is stopped")
	}
	select {
	case r.jobs <- job:
		return nil
	default:
		return errors.New("task queue is full")
	}
}

func (r *TaskRunner) process(job ThumbnailJob) {
	task, err := r.createTask(job)
	if err != nil {
		log.Printf("❌ Could not create background task for proof %s: %v", job.ProofID, err)
		return
	}

	if err := r.generateThumbnail(job); err != nil {
		r.finishTask(task.TaskID, err.Error())
		log.Printf("❌ Thumbnail pipeline failed for proof %s: %v", job.ProofID, err)
		return
	}
	r.finishTask(task.TaskID, "")
}

func (r *TaskRunner) createTask(job ThumbnailJob) (*models.BackgroundTask, error) {
	metadata, _ := json.Marshal(map[string]string{
		"original_path": job.OriginalPath,
		"target_size":   fmt.Sprintf("%dx%d", r.width, r.height),
	})

	proofID := job.ProofID
	task := models.BackgroundTask{
		TaskID:    uuid.New().String(),
		TaskType:  taskTypeImageProcessing,
		ProofID:   &proofID,
		Status:    models.TaskStarted,
		Metadata:  string(metadata),
		StartedAt: time.Now(),
	}
	if err := r.db.Create(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// finishTask marks the task COMPLETED, or FAILED when errMsg is set. The
// conditional update keeps terminal statuses terminal.
func (r *TaskRunner) finishTask(taskID, errMsg string) {
	status := models.TaskCompleted
	if errMsg != "" {
		status = models.TaskFailed
	}
	now := time.Now()
	err := r.db.Model(&models.BackgroundTask{}).
		Where("task_id = ? AND status = ?", taskID, models.TaskStarted).
		Updates(map[string]interface{}{
			"status":   status,
			"error":    errMsg,
			"ended_at": now,
		}).Error
	if err != nil {
		log.Printf("❌ Could not finish background task %s: %v", taskID, err)
	}
}

// generateThumbnail does the actual work: decode, resize into the bounding
// box without cropping or upscaling, encode as PNG, store under
// thumbnails/, and only then delete the original and repoint the proof.
func (r *TaskRunner) generateThumbnail(job ThumbnailJob) error {
	src, err := r.storage.Open(job.OriginalPath)
	if err != nil {
		return StorageError("could not read original image", err)
	}
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	src.Close()
	if err != nil {
		return ProcessingError("could not decode image", err)
	}

	thumb := imaging.Fit(img, r.width, r.height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return ProcessingError("could not encode thumbnail", err)
	}

	name := uuid.New().String() + ".png"
	thumbPath, err := r.storage.SaveBytes("thumbnails", name, buf.Bytes())
	if err != nil {
		return StorageError("could not store thumbnail", err)
	}

	// The thumbnail is durably stored; the original may go now.
	if err := r.storage.Delete(job.OriginalPath); err != nil {
		log.Printf("⚠️  Could not delete original %s: %v", job.OriginalPath, err)
	}

	err = r.db.Model(&models.Proof{}).
		Where("id = ?", job.ProofID).
		Update("image_url", thumbPath).Error
	if err != nil {
		return StorageError("could not update proof with thumbnail path", err)
	}
	return nil
}
