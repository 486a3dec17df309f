// Package builtin registers the bundled extraction providers.
package builtin

import (
	"sync"

	"refinener/internal/provider"
	"refinener/internal/provider/claude"
	"refinener/internal/provider/dandelion"
	"refinener/internal/provider/dummy"
	"refinener/internal/provider/openai"
	"refinener/internal/provider/spotlight"
)

var once sync.Once

// RegisterAll registers every bundled provider kind. Safe to call more than once.
func RegisterAll() {
	once.Do(func() {
		provider.Register(spotlight.Kind, spotlight.New)
		provider.Register(dandelion.Kind, dandelion.New)
		provider.Register(claude.Kind, claude.New)
		provider.Register(openai.Kind, openai.New)
		provider.Register(dummy.Kind, dummy.New)
	})
}
