package rule_test

import (
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/yeisme/docvault/pkg/rule"
)

// TestStruct 用于测试 ValidateStruct.
type TestStruct struct {
	Name string `json:"name" rule:"required"`
	Age  int    `json:"age"  rule:"gte=18"`
}

// TestEngine 测试 Engine 函数返回非 nil 实例.
func TestEngine(t *testing.T) {
	engine := rule.Engine()
	if engine == nil {
		t.Error("Engine() returned nil")
	}
}

// TestValidateStruct 测试 ValidateStruct 对有效和无效结构体的验证.
func TestValidateStruct(t *testing.T) {
	if err := rule.ValidateStruct(TestStruct{Name: "John", Age: 25}); err != nil {
		t.Errorf("Expected no error for valid struct, got %v", err)
	}

	// 缺少 Name
	if err := rule.ValidateStruct(TestStruct{Name: "", Age: 25}); err == nil {
		t.Error("Expected error for invalid struct (missing name), got nil")
	}

	// Age 小于 18
	if err := rule.ValidateStruct(TestStruct{Name: "Jane", Age: 16}); err == nil {
		t.Error("Expected error for invalid struct (age < 18), got nil")
	}
}

// TestErrorsUsesJSONNames 错误字典以 json 字段名为键.
func TestErrorsUsesJSONNames(t *testing.T) {
	errs := rule.Errors(rule.ValidateStruct(TestStruct{Name: "", Age: 1}))
	if len(errs) != 2 {
		t.Fatalf("expected 2 field errors, got %v", errs)
	}

	if errs["name"] != "failed on 'required'" {
		t.Errorf("unexpected name error: %q", errs["name"])
	}

	if errs["age"] != "failed on 'gte=18'" {
		t.Errorf("unexpected age error: %q", errs["age"])
	}

	if rule.Errors(nil) != nil {
		t.Error("expected nil for nil error")
	}
}

// TestFolderName 测试文件夹名称规则.
func TestFolderName(t *testing.T) {
	cases := map[string]bool{
		"Papers":  true,
		"2024 Q1": true,
		"":        false,
		"   ":     false,
		"a/b":     false,
		"résumés": true,
	}

	for name, ok := range cases {
		err := rule.ValidateVar(name, "foldername")
		if ok && err != nil {
			t.Errorf("%q: expected valid, got %v", name, err)
		}

		if !ok && err == nil {
			t.Errorf("%q: expected invalid", name)
		}
	}
}

// TestStorageType 测试存储提供商别名.
func TestStorageType(t *testing.T) {
	for _, p := range []string{"s3", "r2", "minio", "aws-s3", "cloudflare-r2"} {
		if err := rule.ValidateVar(p, "storage_type"); err != nil {
			t.Errorf("%s: expected valid, got %v", p, err)
		}
	}

	if err := rule.ValidateVar("gcs", "storage_type"); err == nil {
		t.Error("expected gcs to be rejected")
	}
}

// TestRegisterValidation 测试注册自定义验证.
func TestRegisterValidation(t *testing.T) {
	err := rule.RegisterValidation("even_length", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}

		return len(str)%2 == 0
	})
	if err != nil {
		t.Fatalf("Failed to register validation: %v", err)
	}

	if err = rule.ValidateVar("test", "even_length"); err != nil {
		t.Errorf("Expected no error for even length string, got %v", err)
	}

	if err = rule.ValidateVar("test1", "even_length"); err == nil {
		t.Error("Expected error for odd length string, got nil")
	}
}
