package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"seckill/internal/auth"
)

// Result 记录单次抢购的最终应答，便于聚合统计。
type Result struct {
	HTTPStatus int
	Status     int // data.status：0 pending，-1 rejected
	Reason     string
	Err        error
}

func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base url")
	activityID := flag.Int("activity", 1, "activity id")
	warmup := flag.Bool("warmup", true, "call warmup before test")
	adminToken := flag.String("admin-token", "dev-admin-token", "admin token for warmup endpoint")
	jwtSecret := flag.String("jwt-secret", "dev-secret", "jwt secret shared with the server")
	stockCheck := flag.Bool("stock", true, "check redis stock after test")

	// 超卖测试参数：200 个用户并发抢
	nUsers := flag.Int("users", 200, "distinct users")
	concurrency := flag.Int("c", 50, "max concurrency")
	flag.Parse()

	client := &http.Client{Timeout: 5 * time.Second}
	signer := auth.NewVerifier(*jwtSecret)

	if *warmup {
		// 先预热库存账本，再发并发请求，避免账本缺失导致测试偏差。
		if err := doPOST(client, fmt.Sprintf("%s/api/seckill/warmup", *baseURL), nil, map[string]string{
			"X-Admin-Token": *adminToken,
		}); err != nil {
			panic(fmt.Sprintf("warmup failed: %v", err))
		}
		fmt.Println("warmup ok")
	}

	// 1) 不超卖测试：不同 user 并发，各自完整走「取口令 → 抢购」
	fmt.Printf("start oversell test: activity=%d users=%d concurrency=%d\n", *activityID, *nUsers, *concurrency)
	results := runSeckill(client, signer, *baseURL, *activityID, *nUsers, *concurrency)
	printSummary("oversell", results)

	if *stockCheck {
		stock, err := getStock(client, *baseURL, *activityID)
		if err != nil {
			fmt.Println("stock check err:", err)
		} else {
			fmt.Println("final redis stock:", stock)
		}
	}

	// 2) 重复参与测试：同一个 user 连抢 20 次，终态应只有一次 accepted
	fmt.Println("\nstart duplicate test: same user (10001), 20 requests, concurrency 20")
	results2 := runSeckillSameUser(client, signer, *baseURL, *activityID, 10001, 20, 20)
	printSummary("duplicate", results2)
}

func runSeckill(client *http.Client, signer *auth.Verifier, baseURL string, activityID, nUsers, concurrency int) []Result {
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	results := make([]Result, nUsers)

	for i := 0; i < nUsers; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = seckillOnce(client, signer, baseURL, activityID, int64(idx+1))
		}(i)
	}

	wg.Wait()
	return results
}

func runSeckillSameUser(client *http.Client, signer *auth.Verifier, baseURL string, activityID int, userID int64, total, concurrency int) []Result {
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	results := make([]Result, total)

	for i := 0; i < total; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = seckillOnce(client, signer, baseURL, activityID, userID)
		}(i)
	}

	wg.Wait()
	return results
}

// seckillOnce 完整走一次抢购链路：签发凭证 → 取口令 → 提交抢购。
func seckillOnce(client *http.Client, signer *auth.Verifier, baseURL string, activityID int, userID int64) Result {
	bearer, err := signer.Sign(userID, fmt.Sprintf("loadtest-%d", userID), 10*time.Minute)
	if err != nil {
		return Result{Err: err}
	}

	path, err := fetchPath(client, baseURL, activityID, bearer)
	if err != nil {
		return Result{Err: err}
	}

	body, _ := json.Marshal(map[string]any{
		"activity_id": activityID,
		"path":        path,
	})
	req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/api/seckill/do", baseURL), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := client.Do(req)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)

	var out struct {
		Code int `json:"code"`
		Data struct {
			Status int    `json:"status"`
			Reason string `json:"reason"`
		} `json:"data"`
	}
	_ = json.Unmarshal(b, &out)
	return Result{HTTPStatus: resp.StatusCode, Status: out.Data.Status, Reason: out.Data.Reason}
}

func fetchPath(client *http.Client, baseURL string, activityID int, bearer string) (string, error) {
	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/api/seckill/path/%d", baseURL, activityID), nil)
	req.Header.Set("Authorization", "Bearer "+bearer)
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("path status=%d body=%s", resp.StatusCode, string(b))
	}

	var out struct {
		Data struct {
			Path string `json:"path"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return "", err
	}
	return out.Data.Path, nil
}

// printSummary 聚合输出 HTTP 状态与业务原因分布。
func printSummary(name string, results []Result) {
	httpCount := map[int]int{}
	reasonCount := map[string]int{}
	errCount := 0
	for _, r := range results {
		if r.Err != nil {
			errCount++
			continue
		}
		httpCount[r.HTTPStatus]++
		if r.Reason != "" {
			reasonCount[r.Reason]++
		}
	}
	fmt.Printf("[%s] http status summary:\n", name)
	for _, code := range []int{200, 400, 401, 404, 429, 500} {
		if httpCount[code] > 0 {
			fmt.Printf("  %d -> %d\n", code, httpCount[code])
		}
	}
	fmt.Printf("[%s] reason summary:\n", name)
	for reason, n := range reasonCount {
		fmt.Printf("  %s -> %d\n", reason, n)
	}
	if errCount > 0 {
		fmt.Printf("  errors -> %d\n", errCount)
	}
}

// doPOST 发送 POST 请求（支持附加请求头）。
func doPOST(client *http.Client, url string, body any, headers map[string]string) error {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req, _ := http.NewRequest(http.MethodPost, url, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}

// getStock 查询 Redis 中当前库存，用于压测后校验是否出现超卖。
func getStock(client *http.Client, baseURL string, activityID int) (int64, error) {
	resp, err := client.Get(fmt.Sprintf("%s/api/seckill/stock/%d", baseURL, activityID))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b))
	}

	var out struct {
		Code int `json:"code"`
		Data struct {
			Stock int64 `json:"stock"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return 0, err
	}
	return out.Data.Stock, nil
}
