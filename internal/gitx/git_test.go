// SPDX-License-Identifier: MPL-2.0

package gitx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// fakeRunner records commands and replies from a canned output table keyed
// by the joined command line.
type fakeRunner struct {
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (f *fakeRunner) key(name string, args ...string) string {
	return name + " " + strings.Join(args, " ")
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	k := f.key(name, args...)
	f.calls = append(f.calls, k)
	return f.errs[k]
}

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) (string, error) {
	k := f.key(name, args...)
	f.calls = append(f.calls, k)
	return f.outputs[k], f.errs[k]
}

func (f *fakeRunner) called(k string) bool {
	for _, c := range f.calls {
		if c == k {
			return true
		}
	}
	return false
}

func TestDetectRemote(t *testing.T) {
	t.Parallel()

	fake := &fakeRunner{outputs: map[string]string{
		"git remote get-url origin": "git@github.com:acme/widget.git",
	}}
	c := &Client{Runner: fake}

	remote, err := c.DetectRemote(context.Background())
	if err != nil {
		t.Fatalf("DetectRemote(): %v", err)
	}
	if remote.Owner != "acme" || remote.Repo != "widget" || !remote.IsGitHub {
		t.Errorf("DetectRemote() = %+v", remote)
	}
}

func TestDetectRemoteUnparseableIsFatal(t *testing.T) {
	t.Parallel()

	fake := &fakeRunner{outputs: map[string]string{
		"git remote get-url origin": "/srv/git/widget.git",
	}}
	c := &Client{Runner: fake}

	if _, err := c.DetectRemote(context.Background()); err == nil {
		t.Fatal("DetectRemote() accepted an unparseable remote")
	}
}

func TestEnsureTagCreatesAndPushesWhenAbsent(t *testing.T) {
	t.Parallel()

	fake := &fakeRunner{outputs: map[string]string{
		"git tag -l v1.2.0": "",
	}}
	c := &Client{Runner: fake}

	if err := c.EnsureTag(context.Background(), "v1.2.0"); err != nil {
		t.Fatalf("EnsureTag(): %v", err)
	}

	if !fake.called("git tag -a v1.2.0 -m Release v1.2.0") {
		t.Errorf("annotated tag not created; calls: %v", fake.calls)
	}
	if !fake.called("git push origin v1.2.0") {
		t.Errorf("tag not pushed; calls: %v", fake.calls)
	}
}

func TestEnsureTagIsIdempotent(t *testing.T) {
	t.Parallel()

	fake := &fakeRunner{outputs: map[string]string{
		"git tag -l v1.2.0": "v1.2.0",
	}}
	c := &Client{Runner: fake}

	if err := c.EnsureTag(context.Background(), "v1.2.0"); err != nil {
		t.Fatalf("EnsureTag() on existing tag: %v", err)
	}

	for _, call := range fake.calls {
		if strings.HasPrefix(call, "git tag -a") || strings.HasPrefix(call, "git push") {
			t.Errorf("existing tag was recreated or pushed: %v", fake.calls)
		}
	}
}

func TestEnsureTagPushFailureIsFatal(t *testing.T) {
	t.Parallel()

	fake := &fakeRunner{
		outputs: map[string]string{"git tag -l v1.2.0": ""},
		errs:    map[string]error{"git push origin v1.2.0": errors.New("remote hung up")},
	}
	c := &Client{Runner: fake}

	err := c.EnsureTag(context.Background(), "v1.2.0")
	if err == nil {
		t.Fatal("EnsureTag() ignored push failure")
	}
	if !strings.Contains(err.Error(), "push tag") {
		t.Errorf("error = %v", err)
	}
}

func TestResolveTagSHA(t *testing.T) {
	t.Parallel()

	want := "9f2e8c1b7a"
	fake := &fakeRunner{outputs: map[string]string{
		"git rev-list -n 1 v1.2.0": want,
	}}
	c := &Client{Runner: fake}

	sha, err := c.ResolveTagSHA(context.Background(), "v1.2.0")
	if err != nil {
		t.Fatalf("ResolveTagSHA(): %v", err)
	}
	if sha != want {
		t.Errorf("ResolveTagSHA() = %q, want %q", sha, want)
	}
}

func TestResolveTagSHAError(t *testing.T) {
	t.Parallel()

	fake := &fakeRunner{errs: map[string]error{
		"git rev-list -n 1 v9.9.9": fmt.Errorf("unknown revision"),
	}}
	c := &Client{Runner: fake}

	if _, err := c.ResolveTagSHA(context.Background(), "v9.9.9"); err == nil {
		t.Fatal("ResolveTagSHA() succeeded for unknown tag")
	}
}
