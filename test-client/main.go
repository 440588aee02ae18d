package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
)

const (
	BackendURL   = "http://localhost:5000"
	TestUsername = "testguard"
	TestPass     = "Test123456"
	TestEmail    = "testguard@example.com"
)

func testHealth() error {
	fmt.Println("\n[TEST] Testing /api/health...")
	resp, err := http.Get(BackendURL + "/api/health")
	if err != nil {
		return fmt.Errorf("health check failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("✓ Health check: %s\n", string(body))
	return nil
}

func testRegister() error {
	fmt.Println("\n[TEST] Testing /register...")

	data := map[string]string{
		"username": TestUsername,
		"password": TestPass,
		"email":    TestEmail,
	}

	jsonData, _ := json.Marshal(data)
	resp, err := http.Post(BackendURL+"/register", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("registration failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusCreated {
		fmt.Printf("✓ Registration successful: %s\n", string(body))
		return nil
	} else if resp.StatusCode == http.StatusConflict {
		fmt.Printf("⚠ User already exists (this is OK)\n")
		return nil
	}

	return fmt.Errorf("registration failed: status %d, body: %s", resp.StatusCode, string(body))
}

func testLogin() (string, error) {
	fmt.Println("\n[TEST] Testing /login...")

	data := map[string]string{
		"username": TestUsername,
		"password": TestPass,
	}

	jsonData, _ := json.Marshal(data)
	resp, err := http.Post(BackendURL+"/login", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("login failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %v", err)
	}
	token, _ := result["access_token"].(string)
	if token == "" {
		return "", fmt.Errorf("no access token received")
	}

	fmt.Printf("✓ Login successful, token received\n")
	return token, nil
}

func authedRequest(method, path, token string, payload interface{}) (*http.Response, []byte, error) {
	var body io.Reader
	if payload != nil {
		jsonData, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonData)
	}

	req, _ := http.NewRequest(method, BackendURL+path, body)
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	return resp, respBody, nil
}

func testUserInfo(token string) error {
	fmt.Println("\n[TEST] Testing /user-info...")

	resp, body, err := authedRequest("GET", "/user-info", token, nil)
	if err != nil {
		return fmt.Errorf("user info failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("user info failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	fmt.Printf("✓ User info: %s\n", string(body))
	return nil
}

func testCameras() error {
	fmt.Println("\n[TEST] Testing /cameras...")

	resp, err := http.Get(BackendURL + "/cameras")
	if err != nil {
		return fmt.Errorf("camera list failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("camera list failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result map[string][]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse cameras: %v", err)
	}

	fmt.Printf("✓ Retrieved %d cameras\n", len(result["cameras"]))
	return nil
}

func testLogDetection(token string) error {
	fmt.Println("\n[TEST] Testing /log-detection...")

	data := map[string]interface{}{
		"camera_id":        1,
		"weapon_type":      "knife",
		"confidence_score": 0.91,
	}

	resp, body, err := authedRequest("POST", "/log-detection", token, data)
	if err != nil {
		return fmt.Errorf("log detection failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("log detection failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	fmt.Printf("✓ Detection logged: %s\n", string(body))
	return nil
}

func testDashboard(token string) error {
	fmt.Println("\n[TEST] Testing /dashboard-data...")

	resp, body, err := authedRequest("GET", "/dashboard-data?days=1", token, nil)
	if err != nil {
		return fmt.Errorf("dashboard failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dashboard failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse dashboard: %v", err)
	}

	totals, _ := result["weapon_totals"].([]interface{})
	fmt.Printf("✓ Dashboard retrieved: %d weapon totals\n", len(totals))
	return nil
}

func testPublicEndpoints() error {
	fmt.Println("\n[TEST] Testing public endpoints...")

	for _, path := range []string{"/public/current-detections", "/public/camera-status", "/detection-logs?days=1"} {
		resp, err := http.Get(BackendURL + path)
		if err != nil {
			return fmt.Errorf("%s failed: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s failed: status %d, body: %s", path, resp.StatusCode, string(body))
		}
		fmt.Printf("✓ %s OK\n", path)
	}
	return nil
}

func testPreferences(token string) error {
	fmt.Println("\n[TEST] Testing /weapon-preferences...")

	resp, body, err := authedRequest("GET", "/weapon-preferences", token, nil)
	if err != nil {
		return fmt.Errorf("preferences failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("preferences failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	update := map[string]interface{}{
		"preferences": []map[string]interface{}{
			{"weapon_type": "knife", "is_enabled": false},
		},
	}
	resp, body, err = authedRequest("POST", "/weapon-preferences", token, update)
	if err != nil {
		return fmt.Errorf("preference update failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("preference update failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	fmt.Printf("✓ Preferences read and updated\n")
	return nil
}

func main() {
	fmt.Println("=" + strings.Repeat("=", 60))
	fmt.Println("WEAPON DETECTOR - Backend Testing Client")
	fmt.Println("=" + strings.Repeat("=", 60))

	fmt.Println("\n[INFO] Make sure the Go backend is running on", BackendURL)
	fmt.Println("[INFO] The /video proxy also needs the AI stream service up")
	fmt.Println("\nPress Enter to start tests...")
	fmt.Scanln()

	tests := []struct {
		name string
		fn   func() error
	}{
		{"Health Check", testHealth},
		{"Registration", testRegister},
		{"Camera List", testCameras},
		{"Public Endpoints", testPublicEndpoints},
	}

	for _, test := range tests {
		if err := test.fn(); err != nil {
			log.Printf("❌ %s failed: %v", test.name, err)
			os.Exit(1)
		}
	}

	token, err := testLogin()
	if err != nil {
		log.Printf("❌ Login failed: %v", err)
		os.Exit(1)
	}

	authedTests := []struct {
		name string
		fn   func(string) error
	}{
		{"User Info", testUserInfo},
		{"Weapon Preferences", testPreferences},
		{"Log Detection", testLogDetection},
		{"Dashboard", testDashboard},
	}

	for _, test := range authedTests {
		if err := test.fn(token); err != nil {
			log.Printf("❌ %s failed: %v", test.name, err)
			os.Exit(1)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("✅ All tests completed successfully!")
	fmt.Println("=" + strings.Repeat("=", 60))
}
