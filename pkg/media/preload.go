// Copyright 2025 The fawa Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package media

import (
	"context"
	"sync"
	"time"

	"github.com/fawa-io/mediavault/pkg/fwlog"
	"github.com/fawa-io/mediavault/pkg/util"
)

// preloadQueueSize bounds the pending warm queue; extra ids are dropped,
// preloading is best effort.
const preloadQueueSize = 128

// preloadPause spaces consecutive warms so the worker stays in the
// background rather than competing with interactive reads.
const preloadPause = 10 * time.Millisecond

// preloader warms the memory cache with one background worker, one load
// at a time.
type preloader struct {
	svc   *Service
	queue chan string
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

func newPreloader(svc *Service) *preloader {
	p := &preloader{
		svc:   svc,
		queue: make(chan string, preloadQueueSize),
		done:  make(chan struct{}),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

func (p *preloader) enqueue(ids []string) {
	batch := util.NewRequestID()
	queued := 0
	for _, id := range ids {
		if id == "" || p.svc.cache.Contains(id) {
			continue
		}
		select {
		case p.queue <- id:
			queued++
		case <-p.done:
			return
		default:
			// Queue full; drop the rest of the batch.
			fwlog.Debugf("media: preload %s dropped %q, queue full", batch, id)
			return
		}
	}
	if queued > 0 {
		fwlog.Debugf("media: preload %s queued %d of %d ids", batch, queued, len(ids))
	}
}

func (p *preloader) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case id := <-p.queue:
			if _, err := p.svc.GetOrLoad(context.Background(), id); err != nil {
				fwlog.Debugf("media: preload of %s skipped: %v", id, err)
			}
			select {
			case <-p.done:
				return
			case <-time.After(preloadPause):
			}
		}
	}
}

func (p *preloader) close() {
	p.once.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}
