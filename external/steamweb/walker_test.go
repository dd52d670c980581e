package steamweb

import (
	"context"
	"fmt"
	"testing"

	"github.com/cstatsentry/backend/internal/domain/user"
	"github.com/cstatsentry/backend/internal/platform/logging"
)

type stubNextCodeSource struct {
	chain map[string]string
	errAt string
	calls int
}

func (s *stubNextCodeSource) GetNextMatchSharingCode(_ context.Context, _, _, knownCode string) (string, bool, error) {
	s.calls++
	if s.errAt != "" && knownCode == s.errAt {
		return "", false, fmt.Errorf("steam status=503")
	}
	next, ok := s.chain[knownCode]
	if !ok {
		return "", false, nil
	}
	return next, true, nil
}

const (
	codeA = "CSGO-GADqf-jjyJ8-cSP2r-smZRo-TO2xK"
	codeB = "CSGO-xzL33-b3hjN-fCXHn-9nRXX-RadFO"
)

func TestWalkCollectsChainUntilExhausted(t *testing.T) {
	t.Parallel()

	source := &stubNextCodeSource{chain: map[string]string{"start": codeA, codeA: codeB}}
	walker := NewWalker(source, logging.NewNop())

	refs := walker.Walk(context.Background(), "765611", "auth", "start", 10)
	if len(refs) != 2 {
		t.Fatalf("expected 2 walked matches, got %d", len(refs))
	}
	if refs[0].ShareCode != codeA || refs[1].ShareCode != codeB {
		t.Fatalf("walk order wrong: %+v", refs)
	}
	if refs[0].MatchID != 3230642215713767580 {
		t.Fatalf("unexpected decode: %+v", refs[0])
	}
	if refs[1].MatchID != 3778909256498020816 || refs[1].Token != 13367 {
		t.Fatalf("unexpected decode: %+v", refs[1])
	}
	if refs[0].DemoURL == "" {
		t.Fatalf("walked entries must carry a demo url")
	}
}

func TestWalkHonorsLimit(t *testing.T) {
	t.Parallel()

	source := &stubNextCodeSource{chain: map[string]string{"start": codeA, codeA: codeB}}
	walker := NewWalker(source, logging.NewNop())

	refs := walker.Walk(context.Background(), "765611", "auth", "start", 1)
	if len(refs) != 1 {
		t.Fatalf("expected 1 walked match, got %d", len(refs))
	}
	if source.calls != 1 {
		t.Fatalf("walker must stop calling at the limit, calls=%d", source.calls)
	}
}

func TestWalkRemoteFailureReturnsPartialResult(t *testing.T) {
	t.Parallel()

	source := &stubNextCodeSource{
		chain: map[string]string{"start": codeA, codeA: codeB},
		errAt: codeA,
	}
	walker := NewWalker(source, logging.NewNop())

	refs := walker.Walk(context.Background(), "765611", "auth", "start", 10)
	if len(refs) != 1 {
		t.Fatalf("partial results are valid results: got %d", len(refs))
	}
	if refs[0].ShareCode != codeA {
		t.Fatalf("unexpected partial result: %+v", refs)
	}
}

func TestWalkUndecodableCodeStops(t *testing.T) {
	t.Parallel()

	source := &stubNextCodeSource{chain: map[string]string{"start": "CSGO-U6MWi-5cZMJ-VsXtM-yrOwD-g8BJJ"}}
	walker := NewWalker(source, logging.NewNop())

	refs := walker.Walk(context.Background(), "765611", "auth", "start", 10)
	if len(refs) != 0 {
		t.Fatalf("undecodable code must end the walk, got %d entries", len(refs))
	}
}

func TestProviderFailsClosedWithoutCredentials(t *testing.T) {
	t.Parallel()

	provider := NewProvider(NewClient(ClientConfig{APIKey: "key", Logger: logging.NewNop()}), logging.NewNop())

	cases := []user.User{
		{SteamID: "765611"},
		{SteamID: "765611", SteamAuthCode: "AAAA-AAAAA-AAAA"},
		{SteamID: "765611", LastMatchShareCode: codeA},
	}
	for _, item := range cases {
		if err := provider.Authenticate(context.Background(), item); err == nil {
			t.Fatalf("expected fail-closed auth for %+v", item)
		}
	}

	full := user.User{SteamID: "765611", SteamAuthCode: "AAAA-AAAAA-AAAA", LastMatchShareCode: codeA}
	if err := provider.Authenticate(context.Background(), full); err != nil {
		t.Fatalf("complete credentials must authenticate: %v", err)
	}
}

func TestProviderDetailsAlwaysAbsent(t *testing.T) {
	t.Parallel()

	provider := NewProvider(NewClient(ClientConfig{APIKey: "key", Logger: logging.NewNop()}), logging.NewNop())
	_, found, err := provider.FetchMatchDetails(context.Background(), "3230642215713767580", "765611")
	if err != nil {
		t.Fatalf("FetchMatchDetails returned error: %v", err)
	}
	if found {
		t.Fatalf("steam source has no box scores yet")
	}
}
