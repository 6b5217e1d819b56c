package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ahrav/secret-alert-audit/internal/domain/secrets"
	"github.com/ahrav/secret-alert-audit/pkg/common/logger"
)

func TestRepositoryEnumerator_Enumerate(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(*mockPlatformClient)
		want       []secrets.Repository
		wantErr    bool
	}{
		{
			name: "filters by prefix and preserves order",
			setupMocks: func(api *mockPlatformClient) {
				api.On("ListOrgRepositories", mock.Anything, "acme", page(1, 100)).Return([]secrets.Repository{
					{Name: "platform-a"}, {Name: "platform-b"}, {Name: "other-x"},
				}, nil).Once()
				api.On("ListOrgRepositories", mock.Anything, "acme", page(2, 100)).Return([]secrets.Repository{}, nil).Once()
			},
			want: []secrets.Repository{{Name: "platform-a"}, {Name: "platform-b"}},
		},
		{
			name: "page with no matches does not stop pagination",
			setupMocks: func(api *mockPlatformClient) {
				api.On("ListOrgRepositories", mock.Anything, "acme", page(1, 100)).Return([]secrets.Repository{
					{Name: "other-x"},
				}, nil).Once()
				api.On("ListOrgRepositories", mock.Anything, "acme", page(2, 100)).Return([]secrets.Repository{
					{Name: "platform-c"},
				}, nil).Once()
				api.On("ListOrgRepositories", mock.Anything, "acme", page(3, 100)).Return(nil, nil).Once()
			},
			want: []secrets.Repository{{Name: "platform-c"}},
		},
		{
			name: "prefix match is case sensitive",
			setupMocks: func(api *mockPlatformClient) {
				api.On("ListOrgRepositories", mock.Anything, "acme", page(1, 100)).Return([]secrets.Repository{
					{Name: "Platform-a"}, {Name: "PLATFORM-b"},
				}, nil).Once()
				api.On("ListOrgRepositories", mock.Anything, "acme", page(2, 100)).Return([]secrets.Repository{}, nil).Once()
			},
			want: []secrets.Repository{},
		},
		{
			name: "listing error aborts",
			setupMocks: func(api *mockPlatformClient) {
				api.On("ListOrgRepositories", mock.Anything, "acme", page(1, 100)).Return([]secrets.Repository{
					{Name: "platform-a"},
				}, nil).Once()
				api.On("ListOrgRepositories", mock.Anything, "acme", page(2, 100)).Return(nil, errors.New("401 Bad credentials")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(mockPlatformClient)
			tt.setupMocks(api)

			enumerator := NewRepositoryEnumerator(api, "acme", "platform", 100, logger.Noop(), noop.NewTracerProvider().Tracer("test"))
			got, err := enumerator.Enumerate(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			api.AssertExpectations(t)
		})
	}
}

func TestRepositoryEnumerator_PageSizeInvariance(t *testing.T) {
	var names []string
	for i := 0; i < 23; i++ {
		if i%3 == 0 {
			names = append(names, fmt.Sprintf("other-%02d", i))
			continue
		}
		names = append(names, fmt.Sprintf("platform-%02d", i))
	}

	var want []secrets.Repository
	for _, n := range names {
		if strings.HasPrefix(n, "platform") {
			want = append(want, secrets.Repository{Name: n})
		}
	}

	for _, perPage := range []int{1, 2, 5, 7, 23, 100} {
		t.Run(fmt.Sprintf("per_page=%d", perPage), func(t *testing.T) {
			platform := &fakePlatform{repos: names}
			enumerator := NewRepositoryEnumerator(platform, "acme", "platform", perPage, logger.Noop(), noop.NewTracerProvider().Tracer("test"))

			got, err := enumerator.Enumerate(context.Background())
			require.NoError(t, err)
			assert.Equal(t, want, got)

			// Pages needed to cover the data, plus the terminating empty page.
			wantCalls := (len(names)+perPage-1)/perPage + 1
			assert.Len(t, platform.repoCalls, wantCalls)
		})
	}
}
