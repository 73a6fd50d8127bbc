package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	store := NewConfigStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.values)
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	err := store.Set("key1", "value1")
	require.NoError(t, err)

	val, ok := store.Get("key1")
	assert.True(t, ok)
	assert.Equal(t, "value1", val)
}

func TestConfigStore_Set_Update(t *testing.T) {
	store := NewConfigStore()

	err := store.Set("key1", "original")
	require.NoError(t, err)

	err = store.Set("key1", "updated")
	require.NoError(t, err)

	val, ok := store.Get("key1")
	assert.True(t, ok)
	assert.Equal(t, "updated", val)
}

func TestConfigStore_Get_NotFound(t *testing.T) {
	store := NewConfigStore()

	val, ok := store.Get("nonexistent")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_GetString(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("key1", "string_value")
	assert.Equal(t, "string_value", store.GetString("key1"))

	// Missing key and wrong type both yield the zero value.
	assert.Equal(t, "", store.GetString("nonexistent"))
	_ = store.Set("key2", 123)
	assert.Equal(t, "", store.GetString("key2"))
}

func TestConfigStore_GetInt(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("int", 42)
	_ = store.Set("int64", int64(43))
	_ = store.Set("float", float64(44.7))
	_ = store.Set("string", "not_a_number")

	assert.Equal(t, 42, store.GetInt("int"))
	assert.Equal(t, 43, store.GetInt("int64"))
	assert.Equal(t, 44, store.GetInt("float"))
	assert.Equal(t, 0, store.GetInt("string"))
	assert.Equal(t, 0, store.GetInt("nonexistent"))
}

func TestConfigStore_GetBool(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("yes", true)
	_ = store.Set("no", false)
	_ = store.Set("string", "true")

	assert.True(t, store.GetBool("yes"))
	assert.False(t, store.GetBool("no"))
	assert.False(t, store.GetBool("string"))
	assert.False(t, store.GetBool("nonexistent"))
}

func TestConfigStore_GetFloat(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("float", 3.5)
	_ = store.Set("int", 7)
	_ = store.Set("int64", int64(8))
	_ = store.Set("string", "3.5")

	assert.Equal(t, 3.5, store.GetFloat("float"))
	assert.Equal(t, 7.0, store.GetFloat("int"))
	assert.Equal(t, 8.0, store.GetFloat("int64"))
	assert.Equal(t, 0.0, store.GetFloat("string"))
	assert.Equal(t, 0.0, store.GetFloat("nonexistent"))
}

func TestConfigStore_Keys(t *testing.T) {
	store := NewConfigStore()

	assert.Empty(t, store.Keys())

	_ = store.Set("a", 1)
	_ = store.Set("b", 2)
	_ = store.Set("c", 3)

	keys := store.Keys()
	assert.Len(t, keys, 3)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, keys)
}

func TestConfigStore_SaveAndLoad_NoOp(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("key1", "value1")

	require.NoError(t, store.Save())
	require.NoError(t, store.Load())

	// Data survives both calls.
	assert.Equal(t, "value1", store.GetString("key1"))
}

func TestConfigStore_Path(t *testing.T) {
	store := NewConfigStore()
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_MultipleInstances(t *testing.T) {
	store1 := NewConfigStore()
	store2 := NewConfigStore()

	_ = store1.Set("key1", "value1")
	_ = store2.Set("key2", "value2")

	_, ok := store1.Get("key2")
	assert.False(t, ok)

	_, ok = store2.Get("key1")
	assert.False(t, ok)
}

func TestConfigStore_Concurrency_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	numGoroutines := 50

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", id)
			_ = store.Set(key, id)
		}(i)
	}
	wg.Wait()

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			_, _ = store.Get(fmt.Sprintf("key-%d", id))
			_ = store.Keys()
		}(i)
	}
	wg.Wait()

	for i := 0; i < numGoroutines; i++ {
		val, ok := store.Get(fmt.Sprintf("key-%d", i))
		assert.True(t, ok)
		assert.Equal(t, i, val)
	}
}

func TestConfigStore_Concurrency_UpdateSameKey(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("shared-key", "initial")

	var wg sync.WaitGroup
	numGoroutines := 50

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			_ = store.Set("shared-key", fmt.Sprintf("updated-%d", id))
		}(i)
	}
	wg.Wait()

	val, ok := store.Get("shared-key")
	assert.True(t, ok)
	assert.NotEqual(t, "initial", val)
}
