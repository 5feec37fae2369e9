package weather

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Service is the companion side of the watch: it fetches today's weather from
// every provider concurrently, aggregates the successful readings and
// publishes the result on the data layer.
type Service struct {
	publisher Publisher
	providers []Provider

	mu   sync.RWMutex
	last *Reading
}

// NewService creates a new Service.
func NewService(publisher Publisher, providers []Provider) *Service {
	return &Service{
		publisher: publisher,
		providers: providers,
	}
}

// FetchAndPublish fetches from all providers for loc and publishes the
// aggregate at DataPath.
func (s *Service) FetchAndPublish(ctx context.Context, loc Location) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		readings []Reading
	)

	log.Printf("DEBUG: FetchAndPublish called for %s with %d providers", loc.Key(), len(s.providers))
	if len(s.providers) == 0 {
		log.Printf("ERROR: No providers available to fetch weather data for %s", loc.Key())
		return fmt.Errorf("no weather providers configured")
	}

	for _, p := range s.providers {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()

			r, err := p.Fetch(ctx, loc)
			if err != nil {
				// Log and continue; we want partial success when possible.
				log.Printf("provider %s fetch failed for %s: %v", p.Name(), loc.Key(), err)
				return
			}

			mu.Lock()
			readings = append(readings, r)
			mu.Unlock()
		}()
	}

	wg.Wait()

	if len(readings) == 0 {
		// The watch keeps showing the last published value.
		log.Printf("no successful provider readings for %s; nothing published", loc.Key())
		return nil
	}

	reading := AggregateReadings(readings)
	if err := s.publisher.PutDataItem(DataPath, Payload(reading)); err != nil {
		return fmt.Errorf("publish weather for %s: %w", loc.Key(), err)
	}

	s.mu.Lock()
	s.last = &reading
	s.mu.Unlock()

	log.Printf("INFO: published weather for %s: high=%.1f low=%.1f id=%d",
		loc.Key(), reading.High, reading.Low, reading.ConditionID)
	return nil
}

// Last returns the most recently published reading.
func (s *Service) Last() (Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return Reading{}, false
	}
	return *s.last, true
}
