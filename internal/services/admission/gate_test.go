package admission

import (
	"fmt"
	"sync"
	"testing"
)

func TestRecordDownloadCycle(t *testing.T) {
	gate := NewGate(20)

	for k := 1; k <= 45; k++ {
		status := gate.RecordDownload("1.2.3.4")

		if status.Count != uint64(k) {
			t.Fatalf("Expected count %d, got %d", k, status.Count)
		}

		expectAd := k%20 == 0
		if status.RequiresAd != expectAd {
			t.Errorf("Download %d: expected requiresAd=%v, got %v", k, expectAd, status.RequiresAd)
		}

		var expectUntil uint64
		if !expectAd {
			expectUntil = uint64(20 - k%20)
		}
		if status.DownloadsUntilAd != expectUntil {
			t.Errorf("Download %d: expected downloadsUntilAd=%d, got %d", k, expectUntil, status.DownloadsUntilAd)
		}
	}
}

func TestQueryStatusUnseenIdentity(t *testing.T) {
	gate := NewGate(20)

	status := gate.QueryStatus("never-seen")
	if status.Count != 0 {
		t.Errorf("Expected count 0, got %d", status.Count)
	}
	if status.DownloadsUntilAd != 20 {
		t.Errorf("Expected downloadsUntilAd 20, got %d", status.DownloadsUntilAd)
	}
	if gate.TrackedIdentities() != 0 {
		t.Error("QueryStatus must not create a counter")
	}
}

func TestQueryStatusAfterDownloads(t *testing.T) {
	gate := NewGate(20)
	for i := 0; i < 7; i++ {
		gate.RecordDownload("a")
	}

	status := gate.QueryStatus("a")
	if status.Count != 7 {
		t.Errorf("Expected count 7, got %d", status.Count)
	}
	if status.DownloadsUntilAd != 13 {
		t.Errorf("Expected downloadsUntilAd 13, got %d", status.DownloadsUntilAd)
	}

	// A read never moves the counter.
	if again := gate.QueryStatus("a"); again.Count != 7 {
		t.Errorf("Expected count to stay 7, got %d", again.Count)
	}
}

func TestAcknowledgeAdIsIdempotent(t *testing.T) {
	gate := NewGate(20)
	for i := 0; i < 20; i++ {
		gate.RecordDownload("a")
	}

	for i := 0; i < 5; i++ {
		ack := gate.AcknowledgeAd("a")
		if !ack.Success {
			t.Error("Expected acknowledgement to succeed")
		}
		if ack.Message == "" {
			t.Error("Expected acknowledgement message")
		}
	}

	if status := gate.QueryStatus("a"); status.Count != 20 {
		t.Errorf("Expected count to stay 20, got %d", status.Count)
	}

	// Acknowledging an unseen identity does not create it either.
	gate.AcknowledgeAd("b")
	if gate.TrackedIdentities() != 1 {
		t.Errorf("Expected 1 tracked identity, got %d", gate.TrackedIdentities())
	}
}

func TestNineteenthToTwentieth(t *testing.T) {
	gate := NewGate(20)
	for i := 0; i < 19; i++ {
		gate.RecordDownload("1.2.3.4")
	}

	status := gate.RecordDownload("1.2.3.4")
	if status.Count != 20 || !status.RequiresAd || status.DownloadsUntilAd != 0 {
		t.Errorf("Expected {20 true 0}, got %+v", status)
	}
}

func TestConcurrentSameIdentity(t *testing.T) {
	gate := NewGate(20)

	const workers = 50
	const perWorker = 40

	var wg sync.WaitGroup
	var adsMu sync.Mutex
	ads := 0

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if gate.RecordDownload("shared").RequiresAd {
					adsMu.Lock()
					ads++
					adsMu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	total := workers * perWorker
	if status := gate.QueryStatus("shared"); status.Count != uint64(total) {
		t.Errorf("Expected count %d, got %d", total, status.Count)
	}
	// Every multiple of the threshold is observed exactly once.
	if ads != total/20 {
		t.Errorf("Expected %d ad triggers, got %d", total/20, ads)
	}
}

func TestConcurrentDistinctIdentities(t *testing.T) {
	gate := NewGate(20)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			identity := fmt.Sprintf("10.0.0.%d", n)
			for j := 0; j < 3; j++ {
				gate.RecordDownload(identity)
			}
		}(i)
	}
	wg.Wait()

	if gate.TrackedIdentities() != 100 {
		t.Errorf("Expected 100 identities, got %d", gate.TrackedIdentities())
	}
	if status := gate.QueryStatus("10.0.0.42"); status.Count != 3 {
		t.Errorf("Expected count 3, got %d", status.Count)
	}
}

func TestNewGateDefaultsThreshold(t *testing.T) {
	gate := NewGate(0)
	if gate.threshold != DefaultThreshold {
		t.Errorf("Expected default threshold %d, got %d", DefaultThreshold, gate.threshold)
	}
}
