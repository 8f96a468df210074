package utils

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name  string
		check func(string) error
		in    string
		want  error
	}{
		{"email ok", ValidateEmail, "ana@uni.edu", nil},
		{"email bad", ValidateEmail, "ana@uni", ErrInvalidEmail},
		{"name ok", ValidateName, "Al", nil},
		{"name short", ValidateName, " A ", ErrNameTooShort},
		{"student ok", ValidateStudentID, "23B0310123", nil},
		{"student lowercase", ValidateStudentID, "23b0310123", ErrInvalidStudentID},
		{"student short", ValidateStudentID, "23B031012", ErrInvalidStudentID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.check(tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("%q: got %v, want %v", tt.in, err, tt.want)
			}
		})
	}
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func TestR2ClientPutJSON(t *testing.T) {
	fake := &fakePutter{}
	c := NewR2ClientWithAPI(fake, "exports", "https://cdn.example/")

	url, err := c.PutJSON(context.Background(), "leaderboards/2026-03-02.json", map[string]int{"rank": 1})
	if err != nil {
		t.Fatalf("put json: %v", err)
	}
	if url != "https://cdn.example/leaderboards/2026-03-02.json" {
		t.Fatalf("unexpected url %q", url)
	}
	if aws.ToString(fake.input.Bucket) != "exports" || aws.ToString(fake.input.ContentType) != "application/json" {
		t.Fatalf("unexpected input %+v", fake.input)
	}
	if fake.body != `{"rank":1}` {
		t.Fatalf("unexpected body %q", fake.body)
	}

	fake.err = errors.New("denied")
	if _, err := c.PutJSON(context.Background(), "k", 1); !errors.Is(err, fake.err) {
		t.Fatalf("expected upload error, got %v", err)
	}
}
