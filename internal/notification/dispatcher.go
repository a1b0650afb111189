package notification

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrQueueFull        = errors.New("notification queue is full")
	ErrDispatcherClosed = errors.New("notification dispatcher is closed")
)

// Creator is the part of Service the dispatcher drives.
type Creator interface {
	Create(ctx context.Context, dto CreateNotificationDTO) (*Notification, error)
}

type Job struct {
	Notification CreateNotificationDTO
	// Source names what asked for the notification, for logs.
	Source string
}

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker processing notification", "worker_id", w.ID, "user_id", job.Notification.UserID)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type DispatcherConfig struct {
	MaxWorkers   int
	JobQueueSize int
	JobTimeout   time.Duration
}

// Dispatcher creates notifications on a bounded pool of workers so event
// handlers never wait on the database.
type Dispatcher struct {
	creator    Creator
	logger     *slog.Logger
	jobTimeout time.Duration

	jobQueue   chan Job
	workerPool chan chan Job
	maxWorkers int

	ctx     context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

func NewDispatcher(config DispatcherConfig, creator Creator, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	jobTimeout := config.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = 5 * time.Second
	}

	d := &Dispatcher{
		creator:    creator,
		logger:     logger,
		jobTimeout: jobTimeout,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan Job, jobQueueSize),
		workerPool: make(chan chan Job, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	d.start()
	return d
}

func (d *Dispatcher) start() {
	d.once.Do(func() {
		for i := 0; i < d.maxWorkers; i++ {
			worker := NewWorker(i, d.workerPool, d.logger)
			worker.Start(d.ctx, &d.workers, d.process)
		}

		go d.dispatch()

		d.logger.Info("notification worker pool started",
			"max_workers", d.maxWorkers,
			"queue_size", cap(d.jobQueue))
	})
}

// dispatch hands queued jobs to idle workers until the queue is closed and
// empty, then stops the workers.
func (d *Dispatcher) dispatch() {
	defer close(d.done)
	defer d.workers.Wait()
	defer d.cancel()

	for job := range d.jobQueue {
		select {
		case jobChannel := <-d.workerPool:
			select {
			case jobChannel <- job:
			case <-d.ctx.Done():
				d.logger.Info("notification dispatcher aborted")
				return
			}
		case <-d.ctx.Done():
			d.logger.Info("notification dispatcher aborted")
			return
		}
	}

	d.logger.Info("notification dispatcher stopped")
}

// Enqueue never blocks: a full queue drops the job with ErrQueueFull.
func (d *Dispatcher) Enqueue(job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.jobQueue <- job:
		return nil
	default:
		d.logger.Warn("notification queue full, dropping job",
			"user_id", job.Notification.UserID,
			"source", job.Source)
		return ErrQueueFull
	}
}

func (d *Dispatcher) process(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.jobTimeout)
	defer cancel()

	n, err := d.creator.Create(ctx, job.Notification)
	if err != nil {
		d.logger.Error("failed to create notification",
			"user_id", job.Notification.UserID,
			"source", job.Source,
			"error", err)
		return
	}
	d.logger.Debug("notification delivered", "notification_id", n.ID, "user_id", n.UserID, "source", job.Source)
}

// Shutdown stops accepting jobs and waits until the queued ones are done or
// ctx ends.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobQueue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		d.cancel()
		return ctx.Err()
	}
}
