package jwt

import (
	"testing"
	"time"
)

var benchSecret = []byte("bench-secret-0123456789abcdef012")

func BenchmarkIssue(b *testing.B) {
	claims := Claims{ClaimSubject: "alice", ClaimRole: "demo-user"}
	now := time.Unix(1_700_000_000, 0)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := IssueAt(benchSecret, claims, 900, now); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkVerify(b *testing.B) {
	now := time.Unix(1_700_000_000, 0)
	issued, err := IssueAt(benchSecret, Claims{ClaimSubject: "alice", ClaimRole: "demo-user"}, 900, now)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := VerifyAt(benchSecret, issued.Token, now); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkVerifyParallel(b *testing.B) {
	now := time.Unix(1_700_000_000, 0)
	issued, err := IssueAt(benchSecret, Claims{ClaimSubject: "alice", ClaimRole: "demo-user"}, 900, now)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := VerifyAt(benchSecret, issued.Token, now); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

func BenchmarkVerifyBadSignature(b *testing.B) {
	now := time.Unix(1_700_000_000, 0)
	issued, err := IssueAt([]byte("another-secret"), Claims{ClaimSubject: "alice"}, 900, now)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := VerifyAt(benchSecret, issued.Token, now); err == nil {
			b.Fatal("expected error")
		}
	}
}

func BenchmarkEncodeBytes(b *testing.B) {
	data := make([]byte, 32)
	for i := range data {
		data[i] = byte(i * 7)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = EncodeBytes(data)
	}
}
