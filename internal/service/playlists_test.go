package service

import (
	"context"
	"errors"
	"testing"

	"github.com/and161185/vidhub/internal/errs"
	"github.com/and161185/vidhub/internal/input"
	"github.com/gofrs/uuid/v5"
)

func TestPlaylists_Lifecycle(t *testing.T) {
	t.Parallel()
	st := newMemStore()
	a, b := st.addUser("alice"), st.addUser("bob")
	v1 := st.addVideo(b.ID, "v1", true)
	v2 := st.addVideo(b.ID, "v2", true)
	s := NewPlaylistService(memPlaylists{st}, memVideos{st})
	ctx := context.Background()

	p, err := s.Create(ctx, a.ID, input.CreatePlaylistInput{Name: "mix", Description: "weekend"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.OwnerID != a.ID || p.Name != "mix" || len(p.Videos) != 0 {
		t.Fatalf("playlist = %+v", p)
	}

	for _, v := range []uuid.UUID{v2.ID, v1.ID} {
		if p, err = s.AddVideo(ctx, p.ID, v, a.ID); err != nil {
			t.Fatalf("AddVideo: %v", err)
		}
	}
	if len(p.Videos) != 2 || p.Videos[0] != v2.ID || p.Videos[1] != v1.ID {
		t.Fatalf("videos = %v", p.Videos)
	}
	if _, err := s.AddVideo(ctx, p.ID, v1.ID, a.ID); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("duplicate add: want ErrValidation, got %v", err)
	}

	if p, err = s.RemoveVideo(ctx, p.ID, v2.ID, a.ID); err != nil {
		t.Fatalf("RemoveVideo: %v", err)
	}
	if len(p.Videos) != 1 || p.Videos[0] != v1.ID {
		t.Fatalf("videos = %v", p.Videos)
	}
	if _, err := s.RemoveVideo(ctx, p.ID, v2.ID, a.ID); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("remove non-member: want ErrValidation, got %v", err)
	}

	if p, err = s.Update(ctx, p.ID, a.ID, input.UpdatePlaylistInput{Name: ptr("renamed")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p.Name != "renamed" || p.Description != "weekend" {
		t.Fatalf("updated = %+v", p)
	}

	if err := s.Delete(ctx, p.ID, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.AddVideo(ctx, p.ID, v1.ID, a.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("deleted playlist: want ErrNotFound, got %v", err)
	}
}

func TestPlaylists_Rules(t *testing.T) {
	t.Parallel()
	st := newMemStore()
	a, b := st.addUser("alice"), st.addUser("bob")
	draft := st.addVideo(b.ID, "draft", false)
	s := NewPlaylistService(memPlaylists{st}, memVideos{st})
	ctx := context.Background()

	p, err := s.Create(ctx, a.ID, input.CreatePlaylistInput{Name: "mix", Description: "d"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.AddVideo(ctx, p.ID, draft.ID, a.ID); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("draft: want ErrValidation, got %v", err)
	}
	if _, err := s.AddVideo(ctx, p.ID, uuid.Must(uuid.NewV4()), a.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown video: want ErrNotFound, got %v", err)
	}
	if _, err := s.Update(ctx, p.ID, b.ID, input.UpdatePlaylistInput{Name: ptr("x")}); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("non-owner update: %v", err)
	}
	if err := s.Delete(ctx, p.ID, b.ID); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("non-owner delete: %v", err)
	}
}
