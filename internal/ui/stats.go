package ui

import (
	"fmt"
	"sync/atomic"

	"github.com/brogergvhs/ranobed/internal/images"
	"github.com/brogergvhs/ranobed/internal/util"
)

type Stats struct {
	TotalImages   atomic.Int64
	TotalBytes    atomic.Int64
	TotalChapters atomic.Int64
}

// Image counts a newly cached image. It fits images.Cache.OnSave.
func (s *Stats) Image(info *images.Info) {
	s.TotalImages.Add(1)
	s.TotalBytes.Add(int64(len(info.Data())))
}

func (s *Stats) Summary() string {
	return fmt.Sprintf("%d chapters, %d images (%s)",
		s.TotalChapters.Load(), s.TotalImages.Load(), util.Human(s.TotalBytes.Load()))
}
