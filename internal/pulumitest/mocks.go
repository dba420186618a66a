// Package pulumitest provides Pulumi engine mocks that record every registered resource so
// tests can assert on the synthesized graph.
package pulumitest

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pulumi/pulumi/sdk/v3/go/common/resource"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// Resource is one registered resource as the engine saw it.
type Resource struct {
	Type   string
	Name   string
	ID     string
	Inputs resource.PropertyMap
}

// String returns an input as a string, or "" when absent.
func (r Resource) String(key string) string {
	v, ok := lookup(r.Inputs, key)
	if !ok || !v.IsString() {
		return ""
	}
	return v.StringValue()
}

// Number returns a numeric input, or 0 when absent.
func (r Resource) Number(key string) float64 {
	v, ok := lookup(r.Inputs, key)
	if !ok || !v.IsNumber() {
		return 0
	}
	return v.NumberValue()
}

// Bool returns a boolean input, or false when absent.
func (r Resource) Bool(key string) bool {
	v, ok := lookup(r.Inputs, key)
	if !ok || !v.IsBool() {
		return false
	}
	return v.BoolValue()
}

// Value returns the input at a dotted path (e.g. "loadBalancers.0.targetGroupArn") as plain Go
// values.
func (r Resource) Value(path string) interface{} {
	v, ok := lookup(r.Inputs, path)
	if !ok {
		return nil
	}
	return v.Mappable()
}

func lookup(m resource.PropertyMap, path string) (resource.PropertyValue, bool) {
	cur := resource.NewObjectProperty(m)
	for _, part := range strings.Split(path, ".") {
		cur = unwrap(cur)
		switch {
		case cur.IsObject():
			next, ok := cur.ObjectValue()[resource.PropertyKey(part)]
			if !ok {
				return resource.PropertyValue{}, false
			}
			cur = next
		case cur.IsArray():
			var idx int
			if _, err := fmt.Sscanf(part, "%d", &idx); err != nil {
				return resource.PropertyValue{}, false
			}
			arr := cur.ArrayValue()
			if idx < 0 || idx >= len(arr) {
				return resource.PropertyValue{}, false
			}
			cur = arr[idx]
		default:
			return resource.PropertyValue{}, false
		}
	}
	cur = unwrap(cur)
	return cur, !cur.IsNull()
}

func unwrap(v resource.PropertyValue) resource.PropertyValue {
	for {
		switch {
		case v.IsSecret():
			v = v.SecretValue().Element
		case v.IsOutput():
			v = v.OutputValue().Element
		default:
			return v
		}
	}
}

// Project is the project name programs run under.
const Project = "webapp-infra"

// Mocks implements pulumi.MockResourceMonitor. The zero value is not usable; use NewMocks.
type Mocks struct {
	mu        sync.Mutex
	stack     string
	config    map[string]string
	resources []Resource
	calls     map[string]resource.PropertyMap
	stacks    map[string]map[string]interface{}
}

// NewMocks returns mocks answering the provider invokes this repository performs.
func NewMocks() *Mocks {
	return &Mocks{
		stack:  "staging",
		config: map[string]string{},
		calls: map[string]resource.PropertyMap{
			"aws:index/getAvailabilityZones:getAvailabilityZones": resource.NewPropertyMapFromMap(map[string]interface{}{
				"names":   []interface{}{"ap-northeast-2a", "ap-northeast-2b", "ap-northeast-2c", "ap-northeast-2d"},
				"zoneIds": []interface{}{"apne2-az1", "apne2-az2", "apne2-az3", "apne2-az4"},
			}),
			"aws:ec2/getAmi:getAmi": resource.NewPropertyMapFromMap(map[string]interface{}{
				"id": "ami-0123456789abcdef0",
			}),
		},
	}
}

// WithStackOutputs sets the outputs returned for a stack reference named stack.
func (m *Mocks) WithStackOutputs(stack string, outputs map[string]interface{}) *Mocks {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stacks == nil {
		m.stacks = map[string]map[string]interface{}{}
	}
	m.stacks[stack] = outputs
	return m
}

// ForStack sets the stack name the program runs as.
func (m *Mocks) ForStack(stack string) *Mocks {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stack = stack
	return m
}

// WithConfig sets a config value. Keys without a namespace are put under Project.
func (m *Mocks) WithConfig(key, value string) *Mocks {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !strings.Contains(key, ":") {
		key = Project + ":" + key
	}
	m.config[key] = value
	return m
}

// OnCall overrides the result of an invoke token.
func (m *Mocks) OnCall(token string, result map[string]interface{}) *Mocks {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[token] = resource.NewPropertyMapFromMap(result)
	return m
}

func (m *Mocks) NewResource(args pulumi.MockResourceArgs) (string, resource.PropertyMap, error) {
	id := args.Name + "-id"
	if args.TypeToken == "pulumi:pulumi:StackReference" {
		m.mu.Lock()
		stackOutputs := m.stacks[args.Name]
		m.mu.Unlock()
		return args.Name, resource.NewPropertyMapFromMap(map[string]interface{}{
			"name":    args.Name,
			"outputs": stackOutputs,
		}), nil
	}
	outputs := args.Inputs.Copy()
	if _, ok := outputs["arn"]; !ok {
		outputs["arn"] = resource.NewStringProperty(MockArn(args.TypeToken, args.Name))
	}
	if _, ok := outputs["name"]; !ok {
		outputs["name"] = resource.NewStringProperty(args.Name)
	}

	m.mu.Lock()
	m.resources = append(m.resources, Resource{
		Type:   args.TypeToken,
		Name:   args.Name,
		ID:     id,
		Inputs: args.Inputs,
	})
	m.mu.Unlock()

	return id, outputs, nil
}

func (m *Mocks) Call(args pulumi.MockCallArgs) (resource.PropertyMap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if result, ok := m.calls[args.Token]; ok {
		return result, nil
	}
	switch args.Token {
	case "aws:iam/getPolicyDocument:getPolicyDocument":
		doc, err := policyDocument(args.Args)
		if err != nil {
			return nil, err
		}
		return resource.NewPropertyMapFromMap(map[string]interface{}{"json": doc}), nil
	case "aws:route53/getZone:getZone":
		name := ""
		if v, ok := args.Args["name"]; ok && v.IsString() {
			name = v.StringValue()
		}
		return resource.NewPropertyMapFromMap(map[string]interface{}{
			"name":   name,
			"zoneId": "Z" + strings.ToUpper(strings.ReplaceAll(name, ".", "")),
		}), nil
	}
	return args.Args, nil
}

// Run executes body against the mocks.
func (m *Mocks) Run(body pulumi.RunFunc) error {
	m.mu.Lock()
	stack := m.stack
	config := make(map[string]string, len(m.config))
	for k, v := range m.config {
		config[k] = v
	}
	m.mu.Unlock()

	return pulumi.RunErr(body, pulumi.WithMocks(Project, stack, m), func(info *pulumi.RunInfo) {
		info.Config = config
	})
}

// Resources returns every resource whose type token equals typ, sorted by name.
func (m *Mocks) Resources(typ string) []Resource {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Resource
	for _, r := range m.resources {
		if r.Type == typ {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resource returns the resource with the given type and name.
func (m *Mocks) Resource(typ, name string) (Resource, bool) {
	for _, r := range m.Resources(typ) {
		if r.Name == name {
			return r, true
		}
	}
	return Resource{}, false
}

// Types returns the distinct type tokens registered so far.
func (m *Mocks) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, r := range m.resources {
		if !seen[r.Type] {
			seen[r.Type] = true
			out = append(out, r.Type)
		}
	}
	sort.Strings(out)
	return out
}

// MockArn is the ARN the mocks assign to a resource that did not set one.
func MockArn(typ, name string) string {
	return fmt.Sprintf("arn:aws:mock:::%s/%s", typ, name)
}

type statement struct {
	Sid       string                         `json:"Sid,omitempty"`
	Effect    string                         `json:"Effect,omitempty"`
	Principal map[string][]string            `json:"Principal,omitempty"`
	Action    []string                       `json:"Action,omitempty"`
	Resource  []string                       `json:"Resource,omitempty"`
	Condition map[string]map[string][]string `json:"Condition,omitempty"`
}

// policyDocument renders getPolicyDocument arguments the way the provider does, minus the
// single-element array folding.
func policyDocument(args resource.PropertyMap) (string, error) {
	doc := struct {
		Version   string      `json:"Version"`
		Statement []statement `json:"Statement"`
	}{Version: "2012-10-17"}

	for _, s := range objects(args.Mappable()["statements"]) {
		st := statement{
			Sid:      str(s["sid"]),
			Effect:   str(s["effect"]),
			Action:   strs(s["actions"]),
			Resource: strs(s["resources"]),
		}
		for _, p := range objects(s["principals"]) {
			if st.Principal == nil {
				st.Principal = map[string][]string{}
			}
			typ := str(p["type"])
			st.Principal[typ] = append(st.Principal[typ], strs(p["identifiers"])...)
		}
		for _, c := range objects(s["conditions"]) {
			if st.Condition == nil {
				st.Condition = map[string]map[string][]string{}
			}
			test := str(c["test"])
			if st.Condition[test] == nil {
				st.Condition[test] = map[string][]string{}
			}
			st.Condition[test][str(c["variable"])] = strs(c["values"])
		}
		doc.Statement = append(doc.Statement, st)
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func objects(v interface{}) []map[string]interface{} {
	items, _ := v.([]interface{})
	var out []map[string]interface{}
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

func strs(v interface{}) []string {
	items, _ := v.([]interface{})
	var out []string
	for _, item := range items {
		out = append(out, str(item))
	}
	return out
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}
