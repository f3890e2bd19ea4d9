package docker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrSnakeDoc/hostwatch/internal/domain"
)

func TestClientListAndInspect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/_ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("/containers/json", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("all") != "1" {
			t.Errorf("list called without all=1: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[{"Id":"abc","Names":["/web"],"Image":"nginx:1.27","State":"running","Status":"Up 3 hours",
			"Ports":[{"IP":"0.0.0.0","PrivatePort":80,"PublicPort":8080,"Type":"tcp"},{"PrivatePort":443,"Type":"tcp"}]}]`))
	})
	mux.HandleFunc("/containers/abc/json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Id":"abc","Name":"/web","State":{"Status":"running","Pid":4242},"HostConfig":{"RestartPolicy":{"Name":"unless-stopped"}}}`))
	})
	mux.HandleFunc("/containers/gone/json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"No such container: gone"}`, http.StatusNotFound)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewHTTPClient(srv.URL, srv.Client())
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	list, err := c.ListContainers(ctx)
	if err != nil {
		t.Fatalf("ListContainers() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != "abc" || len(list[0].Ports) != 2 || list[0].Ports[0].PublicPort != 8080 {
		t.Errorf("ListContainers() = %+v", list)
	}

	info, err := c.InspectContainer(ctx, "abc")
	if err != nil {
		t.Fatalf("InspectContainer() error = %v", err)
	}
	if info.HostConfig.RestartPolicy.Name != "unless-stopped" || info.State.Pid != 4242 {
		t.Errorf("InspectContainer() = %+v", info)
	}

	if _, err := c.InspectContainer(ctx, "gone"); !errors.Is(err, domain.ErrTargetNotFound) {
		t.Errorf("InspectContainer(gone) error = %v, want ErrTargetNotFound", err)
	}
}

func TestClientUnreachableSocket(t *testing.T) {
	c := NewClient(t.TempDir() + "/missing.sock")
	if err := c.Ping(context.Background()); err == nil {
		t.Error("Ping() on a missing socket should fail")
	}
}
