package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	billingdomain "github.com/smallbiznis/scriptly/internal/billing/domain"
	billingsvc "github.com/smallbiznis/scriptly/internal/billing/service"
	"github.com/smallbiznis/scriptly/internal/clock"
	"github.com/smallbiznis/scriptly/internal/config"
	"github.com/smallbiznis/scriptly/internal/identity"
	jobdomain "github.com/smallbiznis/scriptly/internal/job/domain"
	jobrepo "github.com/smallbiznis/scriptly/internal/job/repository"
	jobsvc "github.com/smallbiznis/scriptly/internal/job/service"
	postdomain "github.com/smallbiznis/scriptly/internal/post/domain"
	postrepo "github.com/smallbiznis/scriptly/internal/post/repository"
	postsvc "github.com/smallbiznis/scriptly/internal/post/service"
	publicationdomain "github.com/smallbiznis/scriptly/internal/publication/domain"
	publicationrepo "github.com/smallbiznis/scriptly/internal/publication/repository"
	publicationsvc "github.com/smallbiznis/scriptly/internal/publication/service"
	quotasvc "github.com/smallbiznis/scriptly/internal/quota/service"
	subscriptiondomain "github.com/smallbiznis/scriptly/internal/subscription/domain"
	subscriptionrepo "github.com/smallbiznis/scriptly/internal/subscription/repository"
	subscriptionsvc "github.com/smallbiznis/scriptly/internal/subscription/service"
	usagedomain "github.com/smallbiznis/scriptly/internal/usage/domain"
	usagerepo "github.com/smallbiznis/scriptly/internal/usage/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_test"

type testServer struct {
	engine *gin.Engine
	db     *gorm.DB
	clk    *clock.FakeClock
	node   *snowflake.Node
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&postdomain.Post{},
		&publicationdomain.ScheduledPublication{},
		&jobdomain.Job{},
		&subscriptiondomain.SubscriptionState{},
		&usagedomain.UsageRecord{},
		&billingdomain.BillingEvent{},
	))

	node, err := snowflake.NewNode(7)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	policy := config.NewStaticPolicyHolder(config.DefaultPolicyConfig())

	subSvc := subscriptionsvc.NewService(subscriptionsvc.ServiceParam{
		DB: db, Log: log, Repo: subscriptionrepo.NewRepository(),
	})
	quota := quotasvc.NewService(quotasvc.ServiceParam{
		DB: db, Log: log, Policy: policy, GenID: node, Clock: clk,
		UsageRepo: usagerepo.NewRepository(), SubscriptionSvc: subSvc,
	})
	posts := postsvc.NewService(postsvc.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: postrepo.NewRepository(),
	})
	jobs := jobsvc.NewService(jobsvc.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: clk, Policy: policy,
		Repo: jobrepo.NewRepository(),
	})
	pubs := publicationsvc.NewService(publicationsvc.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: clk,
		Repo: publicationrepo.NewRepository(), PostSvc: posts, Jobs: jobs,
	})
	reconciler := billingsvc.NewReconciler(billingsvc.ReconcilerParam{
		DB: db, Log: log, GenID: node, Clock: clk,
		SubscriptionRepo: subscriptionrepo.NewRepository(),
	})

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	NewServer(ServerParams{
		Engine: engine,
		Cfg: config.Config{
			HTTPAddr:            ":0",
			StripeWebhookSecret: testWebhookSecret,
		},
		Log:            log,
		Clock:          clk,
		Resolver:       identity.NewBearerResolver(""),
		PostSvc:        posts,
		PublicationSvc: pubs,
		QuotaSvc:       quota,
		JobSvc:         jobs,
		Reconciler:     reconciler,
	})

	return &testServer{engine: engine, db: db, clk: clk, node: node}
}

func (ts *testServer) do(t *testing.T, method, path, bearer string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case []byte:
			buf.Write(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func TestGenerateAdmitsAndEnqueues(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/posts/generate", "user_1",
		gin.H{"topic": "coffee", "tone": "casual"}, nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		PostID string `json:"post_id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "queued", resp.Status)
	require.NotEmpty(t, resp.PostID)

	var jobCount int64
	require.NoError(t, ts.db.Model(&jobdomain.Job{}).Count(&jobCount).Error)
	require.Equal(t, int64(1), jobCount)
}

func TestGenerateRejectsOverQuotaBeforeWriting(t *testing.T) {
	ts := newTestServer(t)

	for i := 0; i < 10; i++ {
		require.NoError(t, ts.db.Create(&usagedomain.UsageRecord{
			ID: ts.node.Generate(), SubjectID: "user_free",
			PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2,
			CreatedAt: ts.clk.Now(),
		}).Error)
	}

	w := ts.do(t, http.MethodPost, "/v1/posts/generate", "user_free",
		gin.H{"topic": "coffee"}, nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Contains(t, w.Body.String(), "monthly limit")

	var postCount, jobCount int64
	require.NoError(t, ts.db.Model(&postdomain.Post{}).Count(&postCount).Error)
	require.NoError(t, ts.db.Model(&jobdomain.Job{}).Count(&jobCount).Error)
	require.Zero(t, postCount)
	require.Zero(t, jobCount)
}

func TestGenerateRequiresAuth(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/v1/posts/generate", "", gin.H{"topic": "coffee"}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGenerateValidatesTopic(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/v1/posts/generate", "user_1", gin.H{"tone": "casual"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleValidation(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/posts/generate", "user_1", gin.H{"topic": "coffee"}, nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	var created struct {
		PostID string `json:"post_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	path := "/v1/posts/" + created.PostID + "/schedule"

	w = ts.do(t, http.MethodPost, path, "user_1",
		gin.H{"publish_at": ts.clk.Now().Add(-time.Hour).Format(time.RFC3339)}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, path, "user_1",
		gin.H{"publish_at": ts.clk.Now().Add(time.Hour).Format(time.RFC3339)}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// Someone else's post is a 404, not a 403.
	w = ts.do(t, http.MethodPost, path, "user_2",
		gin.H{"publish_at": ts.clk.Now().Add(time.Hour).Format(time.RFC3339)}, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUsageEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/v1/usage", "user_1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var usage struct {
		Used  int64 `json:"used"`
		Limit int   `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &usage))
	require.Zero(t, usage.Used)
	require.Equal(t, 10, usage.Limit)
}

func signWebhook(t *testing.T, payload []byte, ts time.Time) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestWebhookRejectsBadSignatureBeforeReconciling(t *testing.T) {
	ts := newTestServer(t)

	payload := []byte(`{"id":"evt_1","type":"invoice.paid","data":{"object":{"metadata":{"userId":"user_1"}}}}`)
	w := ts.do(t, http.MethodPost, "/webhooks/stripe", "", payload,
		map[string]string{"Stripe-Signature": "t=123,v1=deadbeef"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var eventCount int64
	require.NoError(t, ts.db.Model(&billingdomain.BillingEvent{}).Count(&eventCount).Error)
	require.Zero(t, eventCount)
}

func TestWebhookAppliesVerifiedEvent(t *testing.T) {
	ts := newTestServer(t)

	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated","data":{"object":{"id":"sub_1","customer":"cus_1","status":"active","metadata":{"userId":"user_1"}}}}`)
	headers := map[string]string{"Stripe-Signature": signWebhook(t, payload, ts.clk.Now())}

	w := ts.do(t, http.MethodPost, "/webhooks/stripe", "", payload, headers)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "applied")

	state, err := subscriptionsvc.NewService(subscriptionsvc.ServiceParam{
		DB: ts.db, Log: zap.NewNop(), Repo: subscriptionrepo.NewRepository(),
	}).GetBySubject(context.Background(), "user_1")
	require.NoError(t, err)
	require.Equal(t, subscriptiondomain.StatusActive, state.Status)

	// Replay returns 200 and changes nothing.
	w = ts.do(t, http.MethodPost, "/webhooks/stripe", "", payload, headers)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "duplicate")
}
