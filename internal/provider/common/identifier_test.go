package common

import (
	"errors"
	"testing"

	"github.com/johanforsgren/threadline/internal/domain"
)

func TestParseHandle(t *testing.T) {
	tests := []struct {
		name         string
		handle       string
		wantName     string
		wantInstance string
		wantErr      bool
	}{
		{
			name:         "valid handle",
			handle:       "alice@lemmy.world",
			wantName:     "alice",
			wantInstance: "lemmy.world",
		},
		{
			name:    "missing instance",
			handle:  "alice",
			wantErr: true,
		},
		{
			name:    "too many parts",
			handle:  "alice@lemmy@world",
			wantErr: true,
		},
		{
			name:    "empty name",
			handle:  "@lemmy.world",
			wantErr: true,
		},
		{
			name:    "empty instance",
			handle:  "alice@",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, instance, err := ParseHandle(tt.handle)
			if tt.wantErr {
				if err == nil {
					t.Fatal("ParseHandle() expected error, got nil")
				}
				if !errors.Is(err, ErrInvalidHandleFormat) {
					t.Errorf("ParseHandle() error = %v, want ErrInvalidHandleFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHandle() unexpected error: %v", err)
			}
			if name != tt.wantName || instance != tt.wantInstance {
				t.Errorf("ParseHandle() = (%q, %q), want (%q, %q)", name, instance, tt.wantName, tt.wantInstance)
			}
		})
	}
}

func TestRemoteHandle(t *testing.T) {
	tests := []struct {
		name   string
		person domain.Person
		want   string
	}{
		{
			name:   "actor id url",
			person: domain.Person{Name: "alice", ActorID: "https://lemmy.world/u/alice"},
			want:   "alice@lemmy.world",
		},
		{
			name:   "no actor id",
			person: domain.Person{Name: "alice"},
			want:   "alice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemoteHandle(tt.person); got != tt.want {
				t.Errorf("RemoteHandle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInstanceHostAndBaseURL(t *testing.T) {
	tests := []struct {
		endpoint string
		wantHost string
		wantBase string
	}{
		{endpoint: "lemmy.world", wantHost: "lemmy.world", wantBase: "https://lemmy.world"},
		{endpoint: "https://beehaw.org/", wantHost: "beehaw.org", wantBase: "https://beehaw.org"},
		{endpoint: "http://127.0.0.1:8536", wantHost: "127.0.0.1:8536", wantBase: "http://127.0.0.1:8536"},
		{endpoint: "", wantHost: "", wantBase: ""},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			if got := InstanceHost(tt.endpoint); got != tt.wantHost {
				t.Errorf("InstanceHost(%q) = %q, want %q", tt.endpoint, got, tt.wantHost)
			}
			if got := BaseURL(tt.endpoint); got != tt.wantBase {
				t.Errorf("BaseURL(%q) = %q, want %q", tt.endpoint, got, tt.wantBase)
			}
		})
	}
}
