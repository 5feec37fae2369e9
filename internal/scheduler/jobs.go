package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-watchface/internal/weather"
)

// Syncer fetches weather for a location and publishes it to the watch.
type Syncer interface {
	FetchAndPublish(ctx context.Context, loc weather.Location) error
}

// Jobs owns the gocron scheduler for the coarse periodic work.
type Jobs struct {
	scheduler *gocron.Scheduler
	timeout   time.Duration
}

// NewJobs creates a stopped scheduler evaluating cron expressions in loc.
func NewJobs(loc *time.Location) *Jobs {
	if loc == nil {
		loc = time.Local
	}
	return &Jobs{
		scheduler: gocron.NewScheduler(loc),
		timeout:   30 * time.Second,
	}
}

// TimeTick calls fn at the top of every minute, the way the host's
// coarse time tick does.
func (j *Jobs) TimeTick(fn func()) error {
	_, err := j.scheduler.Cron("* * * * *").Do(fn)
	return err
}

// CompanionSync fetches and publishes weather for every location each
// interval, starting immediately.
func (j *Jobs) CompanionSync(syncer Syncer, locations []weather.Location, interval time.Duration) error {
	if len(locations) == 0 {
		log.Println("scheduler: no locations configured; companion sync disabled")
		return nil
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	_, err := j.scheduler.Every(interval).SingletonMode().Do(func() {
		j.syncAll(syncer, locations)
	})
	return err
}

func (j *Jobs) syncAll(syncer Syncer, locations []weather.Location) {
	log.Println("scheduler: running weather sync job")

	var wg sync.WaitGroup
	for _, loc := range locations {
		loc := loc
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
			defer cancel()

			if err := syncer.FetchAndPublish(ctx, loc); err != nil {
				log.Printf("scheduler: sync failed for %s: %v", loc.Key(), err)
			}
		}()
	}
	wg.Wait()
	log.Println("scheduler: completed weather sync job")
}

// Len returns the number of registered jobs.
func (j *Jobs) Len() int {
	return j.scheduler.Len()
}

// Start runs the scheduler in the background.
func (j *Jobs) Start() {
	j.scheduler.StartAsync()
}

// Stop stops the scheduler and cancels any future jobs.
func (j *Jobs) Stop() {
	if j.scheduler != nil {
		j.scheduler.Stop()
	}
}
