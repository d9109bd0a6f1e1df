package soap

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildEnvelope(t *testing.T) {
	got := string(BuildEnvelope("IM_Send_Message_To", map[string]string{
		"UserName":   "ann",
		"ToUserName": "bob",
		"Message":    `hello <world> & "friends"`,
	}))

	for _, want := range []string{
		`<IM_Send_Message_To xmlns="http://tempuri.org/">`,
		"<UserName>ann</UserName>",
		"<ToUserName>bob</ToUserName>",
		"hello &lt;world&gt; &amp; &#34;friends&#34;",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("envelope missing %q:\n%s", want, got)
		}
	}

	// Params are written sorted so identical calls compare byte-equal.
	if strings.Index(got, "<Message>") > strings.Index(got, "<ToUserName>") {
		t.Error("parameters are not in sorted order")
	}
	again := string(BuildEnvelope("IM_Send_Message_To", map[string]string{
		"Message":    `hello <world> & "friends"`,
		"ToUserName": "bob",
		"UserName":   "ann",
	}))
	if got != again {
		t.Error("identical calls produced different envelopes")
	}
}

func TestExtractResult(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <IM_Get_User_TasksResponse xmlns="http://tempuri.org/">
      <IM_Get_User_TasksResult>[{"TASK_ID":"41"}]</IM_Get_User_TasksResult>
    </IM_Get_User_TasksResponse>
  </soap:Body>
</soap:Envelope>`)

	got, err := ExtractResult(body, "IM_Get_User_Tasks")
	if err != nil {
		t.Fatalf("ExtractResult: %v", err)
	}
	if got != `[{"TASK_ID":"41"}]` {
		t.Errorf("ExtractResult = %q", got)
	}
}

func TestExtractResultMissing(t *testing.T) {
	body := []byte(`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body/></soap:Envelope>`)
	_, err := ExtractResult(body, "IM_Task_Create")
	if err == nil {
		t.Fatal("expected an error for a missing result element")
	}
	var se *ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("error = %T, want *ServiceError", err)
	}
}

func TestExtractResultMalformed(t *testing.T) {
	_, err := ExtractResult([]byte(`<soap:Envelope`), "doConnection")
	if err == nil {
		t.Fatal("expected an error for a truncated envelope")
	}
}
