// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package template expands OpenShift templates into cluster objects.

A Processor works in the namespace of its session:

	p := template.NewProcessor(session, template.WithRunID(runID))

	tpl, err := p.Fetch(ctx, "batch-v1")
	objs, err := p.Process(ctx, tpl, map[string]string{"ARG": "42"}, 60*time.Second)
	err = template.ApplyNameOverride(objs, []string{"My_Job"})
	for _, o := range objs {
		err = p.DeleteIfPresent(ctx, o, defaults.K8sDeleteTimeout)
	}
	refs, err := p.Create(ctx, tpl.Name, objs)

Templates are processed by the API server (processedtemplates) unless the
processor was built WithLocalProcessing or the template was loaded from a
file with Load, in which case ${NAME} and ${{NAME}} expressions are
substituted in the agent.
*/
package template
