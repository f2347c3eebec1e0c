package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casilleros-backend/internal/model"
)

func TestPutSubscription_InvalidBody(t *testing.T) {
	e := newTestEnv(t, nil)

	w, env := e.do(t, http.MethodPut, "/api/subscriptions", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Cuerpo de la solicitud inválido", env.Error)

	_, env = e.do(t, http.MethodPut, "/api/subscriptions", gin.H{"endpoint": "https://push.example/x"})
	assert.False(t, env.Success)
	assert.Equal(t, "Cuerpo de la solicitud inválido", env.Error)
}

func TestSubscriptionLifecycle(t *testing.T) {
	e := newTestEnv(t, nil)

	_, env := e.do(t, http.MethodPost, "/api/bloques", gin.H{"nombre": "S", "filas": 1, "columnas": 3})
	require.True(t, env.Success)
	var block model.Block
	require.NoError(t, json.Unmarshal(env.Data, &block))
	first, second := block.Lockers[0].ID, block.Lockers[1].ID

	endpoint := "https://push.example/send/abc%3D%3D"
	_, env = e.do(t, http.MethodPut, "/api/subscriptions", gin.H{
		"endpoint":             endpoint,
		"p256dh":               "key",
		"auth":                 "secret",
		"casilleros_suscritos": []int64{first, second},
	})
	require.True(t, env.Success, env.Error)
	assert.Equal(t, "Suscripción guardada exitosamente", env.Message)

	getPath := "/api/subscriptions?endpoint=" + endpoint
	_, env = e.do(t, http.MethodGet, getPath, nil)
	require.True(t, env.Success, env.Error)
	var data subscriptionData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.ElementsMatch(t, []int64{first, second}, data.SubscribedLockers)

	// Replacing narrows the followed set.
	_, env = e.do(t, http.MethodPut, "/api/subscriptions", gin.H{
		"endpoint":             endpoint,
		"p256dh":               "key2",
		"auth":                 "secret2",
		"casilleros_suscritos": []int64{second},
	})
	require.True(t, env.Success, env.Error)

	_, env = e.do(t, http.MethodGet, getPath, nil)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, []int64{second}, data.SubscribedLockers)

	var stored model.PushSubscription
	require.NoError(t, e.db.First(&stored, "endpoint = ?", endpoint).Error)
	assert.Equal(t, "key2", stored.P256DH)

	_, env = e.do(t, http.MethodDelete, "/api/subscriptions", gin.H{"endpoint": endpoint})
	assert.True(t, env.Success)

	_, env = e.do(t, http.MethodGet, getPath, nil)
	assert.False(t, env.Success)
	assert.Equal(t, "Suscripción no encontrada", env.Error)
}

func TestGetSubscription_RequiresEndpoint(t *testing.T) {
	e := newTestEnv(t, nil)

	_, env := e.do(t, http.MethodGet, "/api/subscriptions", nil)
	assert.False(t, env.Success)
	assert.Equal(t, "El endpoint es requerido", env.Error)
}

func TestRawQueryParam(t *testing.T) {
	raw := "a=1&endpoint=" + url.QueryEscape("https://x/y?z=1") + "&b=2"

	v, ok := rawQueryParam(raw, "endpoint")
	assert.True(t, ok)
	assert.Equal(t, "https%3A%2F%2Fx%2Fy%3Fz%3D1", v)

	_, ok = rawQueryParam(raw, "missing")
	assert.False(t, ok)
}
