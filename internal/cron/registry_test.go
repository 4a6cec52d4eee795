package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndCopies(t *testing.T) {
	cleanup := &stubJob{name: "export-cleanup"}
	retention := &stubJob{name: "audit-retention"}
	registry := NewRegistry(cleanup, nil)
	require.NoError(t, registry.Register(retention))

	jobs := registry.Jobs()
	require.Len(t, jobs, 2)
	assert.Same(t, cleanup, jobs[0])
	assert.Same(t, retention, jobs[1])

	jobs[0] = nil
	assert.NotNil(t, registry.Jobs()[0])
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	registry := NewRegistry(&stubJob{name: "export-cleanup"})
	assert.Error(t, registry.Register(&stubJob{name: "export-cleanup"}))
	assert.Panics(t, func() {
		NewRegistry(&stubJob{name: "a"}, &stubJob{name: "a"})
	})
}

func TestRegistryLookup(t *testing.T) {
	job := &stubJob{name: "audit-retention"}
	registry := NewRegistry(job)

	got, ok := registry.Lookup("audit-retention")
	require.True(t, ok)
	assert.Same(t, job, got)

	_, ok = registry.Lookup("missing")
	assert.False(t, ok)
}
