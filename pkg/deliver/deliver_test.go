package deliver

import (
	"context"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/refnotify/refnotify/pkg/git"
	"github.com/refnotify/refnotify/pkg/notify"
)

func testNotice() notify.Notice {
	return notify.Notice{
		Kind:        notify.NoticeCommit,
		Subject:     "widgets: fix the frobnicator",
		ContentType: notify.ContentTypePlain,
		Lines:       []string{"Module: widgets", "", "Fix the frobnicator"},
		Repo:        "widgets",
		Ref:         "refs/heads/main",
		CommitID:    git.Hash(strings.Repeat("a", 40)),
		Author:      "Jane Doe",
		Files:       []string{"widget.go"},
	}
}

func TestBuildMessage(t *testing.T) {
	is := is.New(t)
	msg := string(buildMessage(
		"hook@example.com",
		"commits@example.com",
		"widgets: fix the frobnicator",
		notify.ContentTypePlain,
		map[string]string{"X-Git-Repo": "widgets", "X-Git-Commit": ""},
		[]string{"first line", "", "last line"},
	))

	headers, body, found := strings.Cut(msg, "\n\n")
	is.True(found)
	is.True(strings.HasPrefix(headers, "From: hook@example.com\n"))
	is.True(strings.Contains(headers, "To: commits@example.com\n"))
	is.True(strings.Contains(headers, "Subject: widgets: fix the frobnicator\n"))
	is.True(strings.Contains(headers, "MIME-Version: 1.0\n"))
	is.True(strings.Contains(headers, "Content-Type: text/plain; charset=utf-8\n"))
	is.True(strings.Contains(headers, "Message-ID: <"))
	is.True(strings.Contains(headers, "@refnotify>\n"))
	is.True(strings.Contains(headers, "X-Git-Repo: widgets\n"))
	// empty extra headers are dropped
	is.True(!strings.Contains(headers, "X-Git-Commit"))
	is.Equal(body, "first line\n\nlast line\n")
}

func TestBuildMessageEncodesSubject(t *testing.T) {
	is := is.New(t)
	msg := string(buildMessage("", "commits@example.com", "Grüße: fix the frobnicator", notify.ContentTypePlain, nil, nil))
	is.True(strings.Contains(msg, "Subject: =?utf-8?q?"))
	is.True(!strings.Contains(msg, "Subject: Grüße"))
}

func TestBuildMessageNoSender(t *testing.T) {
	is := is.New(t)
	msg := string(buildMessage("", "commits@example.com", "s", notify.ContentTypePlain, nil, nil))
	is.True(!strings.Contains(msg, "From:"))
	is.True(strings.HasPrefix(msg, "To: commits@example.com\n"))
}

func TestMarshalFeed(t *testing.T) {
	is := is.New(t)
	body, err := MarshalFeed(testNotice())
	is.NoErr(err)
	is.True(strings.HasPrefix(body, `<?xml version="1.0" encoding="UTF-8"?>`))
	is.True(strings.Contains(body, "<repository>widgets</repository>"))
	is.True(strings.Contains(body, "<ref>refs/heads/main</ref>"))
	is.True(strings.Contains(body, "<commit>"+strings.Repeat("a", 40)+"</commit>"))
	is.True(strings.Contains(body, "<author>Jane Doe</author>"))
	is.True(strings.Contains(body, "<subject>widgets: fix the frobnicator</subject>"))
	is.True(strings.Contains(body, "<file>widget.go</file>"))
	is.True(strings.Contains(body, "<body>Module: widgets&#xA;&#xA;Fix the frobnicator</body>"))
}

func TestMarshalFeedOmitsEmptyCommit(t *testing.T) {
	is := is.New(t)
	n := testNotice()
	n.CommitID = ""
	n.Files = nil
	body, err := MarshalFeed(n)
	is.NoErr(err)
	is.True(!strings.Contains(body, "<commit>"))
	is.True(!strings.Contains(body, "<files>"))

	n.CommitID = git.ZeroHash
	body, err = MarshalFeed(n)
	is.NoErr(err)
	is.True(!strings.Contains(body, "<commit>"))
}

func TestWriterSink(t *testing.T) {
	is := is.New(t)
	var b strings.Builder
	s := NewWriterSink(&b)
	is.NoErr(s.Send(context.TODO(), testNotice()))
	is.Equal(b.String(), "Subject: widgets: fix the frobnicator\n\nModule: widgets\n\nFix the frobnicator\n\n")
}
