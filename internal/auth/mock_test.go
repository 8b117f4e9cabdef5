package auth

import (
	"context"
	"errors"
	"testing"
)

func TestMockProviderDefaults(t *testing.T) {
	mock := NewMockProvider()

	_, authenticated, err := mock.Handshake(context.Background())
	if err != nil || authenticated {
		t.Fatalf("expected anonymous handshake by default, got auth=%v err=%v", authenticated, err)
	}
	if mock.HandshakeCalls != 1 {
		t.Fatalf("expected call to be counted, got %d", mock.HandshakeCalls)
	}
}

func TestMockProviderConfiguredErrors(t *testing.T) {
	mock := NewMockProvider()
	mock.RefreshErr = errors.New("boom")
	mock.LogoutErr = errors.New("boom")

	if _, err := mock.Refresh(context.Background(), "token"); err == nil {
		t.Fatal("expected configured refresh error")
	}
	if err := mock.Logout(context.Background(), "token"); err == nil {
		t.Fatal("expected configured logout error")
	}
	if mock.RefreshCalls != 1 || mock.LogoutCalls != 1 {
		t.Fatalf("expected calls to be counted, got %d/%d", mock.RefreshCalls, mock.LogoutCalls)
	}
}
